package fs

import (
	"context"

	"github.com/skillian/errors"
	"github.com/studiointeract/qbankapi2wrapper/web"
)

const (
	// MaxDepth is the deepest level of folders QBank can have.  There is no
	// way to ask for an unlimited depth, so it's used instead.
	MaxDepth = 23

	// DefaultFolderType is the type of an ordinary folder.
	DefaultFolderType = 1
)

// Names of the calls within the batches sent by the API.
const (
	callFolder     = "folder"
	callSubfolders = "subfolders"
	callCreation   = "creation"
	callEdit       = "edit"
)

// Caller is what the API needs from a web.Client.
type Caller interface {
	Invoke(ctx context.Context, function string, args web.Args) (web.Result, error)
	Call(ctx context.Context, function string, args web.Args) (web.Result, error)
	Batch(ctx context.Context, calls ...web.Call) (web.BatchResult, error)
}

// API provides the folder operations of QBank.  Every operation is a single
// round trip: one call or one batch.
type API struct {
	c Caller
}

// NewAPI creates an API that sends its calls through c.
func NewAPI(c Caller) *API {
	return &API{c: c}
}

// ListOptions bound a folder listing.
type ListOptions struct {
	// RootID is the folder to consider the root.  0 is QBank's root.
	RootID FolderID

	// Depth is how many levels of folders to get.  0 means MaxDepth.
	Depth int
}

func (o ListOptions) depth() int {
	if o.Depth <= 0 {
		return MaxDepth
	}
	return o.Depth
}

func structureArgs(root FolderID, depth int, fetchProperties bool) web.Args {
	return web.Args{
		"folderId":        int(root),
		"depth":           depth,
		"fetchProperties": fetchProperties,
	}
}

// Folders gets a flat listing of the folders below opts.RootID.  If the
// server has no listing to give, the result is nil rather than empty.
func (a *API) Folders(ctx context.Context, opts ListOptions) ([]SimpleFolder, error) {
	recs, ok, err := a.listing(ctx, opts, false)
	if err != nil || !ok {
		return nil, err
	}
	return MapSimpleList(recs)
}

// FolderTree gets the folders below opts.RootID with their properties,
// linked into trees.  The top level folders are returned.  If the server
// has no listing to give, the result is nil rather than empty.
func (a *API) FolderTree(ctx context.Context, opts ListOptions) ([]*Folder, error) {
	recs, ok, err := a.listing(ctx, opts, true)
	if err != nil || !ok {
		return nil, err
	}
	set, err := MapFullSet(recs)
	if err != nil {
		return nil, err
	}
	return BuildTree(set), nil
}

func (a *API) listing(ctx context.Context, opts ListOptions, fetchProperties bool) ([]web.FolderRecord, bool, error) {
	r, err := a.c.Call(
		ctx, web.FuncGetFolderStructure,
		structureArgs(opts.RootID, opts.depth(), fetchProperties))
	if err != nil {
		return nil, false, err
	}
	return decodeListing(r, "data")
}

// decodeListing decodes the array of folder records in the given field.  ok
// is false if the field isn't an array.
func decodeListing(r web.Result, field string) (recs []web.FolderRecord, ok bool, err error) {
	if !r.Get(field).IsArray() {
		logger.Debug1("result has no folder listing in %q", field)
		return nil, false, nil
	}
	if err = r.Decode(field, &recs); err != nil {
		return nil, false, err
	}
	return recs, true, nil
}

// Folder gets a single folder without its properties.
func (a *API) Folder(ctx context.Context, id FolderID) (SimpleFolder, error) {
	rec, _, err := a.fetch(ctx, id, false, false)
	if err != nil {
		return SimpleFolder{}, err
	}
	return MapSimple(rec)
}

// FullFolder gets a single folder with its properties.
func (a *API) FullFolder(ctx context.Context, id FolderID) (*Folder, error) {
	rec, _, err := a.fetch(ctx, id, false, true)
	if err != nil {
		return nil, err
	}
	return MapFull(rec)
}

// FolderWithSubfolders gets a folder and all of the folders below it as a
// flat listing.  The folder itself is taken from a separate lookup which
// replaces its entry in the listing, or is appended if the listing doesn't
// have one.
func (a *API) FolderWithSubfolders(ctx context.Context, id FolderID) ([]SimpleFolder, error) {
	rec, subs, err := a.fetch(ctx, id, true, false)
	if err != nil {
		return nil, err
	}
	folders, err := MapSimpleList(subs)
	if err != nil {
		return nil, err
	}
	self, err := MapSimple(rec)
	if err != nil {
		return nil, err
	}
	for i := range folders {
		if folders[i].ID == id {
			folders[i] = self
			return folders, nil
		}
	}
	return append(folders, self), nil
}

// Subtree gets a folder with its properties and subfolders, linked into a
// tree.  The folder itself is taken from a separate lookup which takes
// precedence over its entry in the listing.
func (a *API) Subtree(ctx context.Context, id FolderID) (*Folder, error) {
	rec, subs, err := a.fetch(ctx, id, true, true)
	if err != nil {
		return nil, err
	}
	set, err := MapFullSet(subs)
	if err != nil {
		return nil, err
	}
	self, err := MapFull(rec)
	if err != nil {
		return nil, err
	}
	set.Put(self)
	BuildTree(set)
	return self, nil
}

// fetch gets a folder's record in a batch, along with the listing of the
// folders under it if recursive is true.
func (a *API) fetch(ctx context.Context, id FolderID, recursive, fetchProperties bool) (rec web.FolderRecord, subs []web.FolderRecord, err error) {
	calls := make([]web.Call, 0, 2)
	if recursive {
		calls = append(calls, web.Call{
			Name:     callSubfolders,
			Function: web.FuncGetFolderStructure,
			Args:     structureArgs(id, MaxDepth, fetchProperties),
		})
	}
	calls = append(calls, web.Call{
		Name:     callFolder,
		Function: web.FuncGetFolderInformation,
		Args:     web.Args{"folderId": int(id)},
	})
	br, err := a.c.Batch(ctx, calls...)
	if err != nil {
		return
	}
	if rec, err = folderFrom(br, callFolder); err != nil {
		return
	}
	rec.FolderID = int(id)
	if recursive {
		r, err := translated(br, callSubfolders)
		if err != nil {
			return web.FolderRecord{}, nil, err
		}
		if subs, _, err = decodeListing(r, "data"); err != nil {
			return web.FolderRecord{}, nil, err
		}
	}
	return rec, subs, nil
}

// translated gets the named call's result from the batch, translating a
// failure into an error.  A call is checked before the calls that refer
// to it, so a skipped call is only reported as missing when the call it
// depends on succeeded.
func translated(br web.BatchResult, call string) (web.Result, error) {
	r, ok := br.Result(call)
	if !ok {
		err := &web.ConnectionError{
			Function: web.FuncBatch,
			Err: errors.Errorf(
				"malformed response: batch has no result "+
					"for call %q", call),
		}
		logger.Error("%v", err)
		return web.Result{}, err
	}
	if err := web.Translate(call, r); err != nil {
		return web.Result{}, err
	}
	return r, nil
}

// folderFrom decodes the folder record of the named call in the batch.
func folderFrom(br web.BatchResult, call string) (rec web.FolderRecord, err error) {
	r, err := translated(br, call)
	if err != nil {
		return
	}
	err = r.Decode("folder", &rec)
	return
}

// CreateFolder creates a folder under the parent and returns it as the
// server has stored it.
func (a *API) CreateFolder(ctx context.Context, name string, parent FolderID, folderType int) (SimpleFolder, error) {
	if name == "" {
		return SimpleFolder{}, errors.Errorf("folder name cannot be empty")
	}
	br, err := a.c.Batch(ctx,
		web.Call{
			Name:     callCreation,
			Function: web.FuncCreateFolder,
			Args: web.Args{
				"name":       name,
				"parentId":   int(parent),
				"folderType": folderType,
			},
		},
		web.Call{
			Name:     callFolder,
			Function: web.FuncGetFolderInformation,
			Args:     web.Args{"folderId": web.RefTo(callCreation, "folderId")},
		})
	if err != nil {
		return SimpleFolder{}, err
	}
	creation, err := translated(br, callCreation)
	if err != nil {
		return SimpleFolder{}, err
	}
	rec, err := folderFrom(br, callFolder)
	if err != nil {
		return SimpleFolder{}, err
	}
	if id := creation.Get("folderId"); id.Exists() {
		rec.FolderID = int(id.Int())
	}
	logger.Info2("created folder %q under %v", name, parent)
	return MapSimple(rec)
}

// EditFolder renames a folder and sets its properties, keyed by system
// name.  It returns the folder as the server has stored it.
func (a *API) EditFolder(ctx context.Context, id FolderID, name string, properties map[string]interface{}) (SimpleFolder, error) {
	if name == "" {
		return SimpleFolder{}, errors.Errorf("folder name cannot be empty")
	}
	if properties == nil {
		properties = map[string]interface{}{}
	}
	br, err := a.c.Batch(ctx,
		web.Call{
			Name:     callEdit,
			Function: web.FuncEditFolder,
			Args: web.Args{
				"folderId":   int(id),
				"name":       name,
				"properties": properties,
			},
		},
		web.Call{
			Name:     callFolder,
			Function: web.FuncGetFolderInformation,
			Args:     web.Args{"folderId": int(id)},
		})
	if err != nil {
		return SimpleFolder{}, err
	}
	if _, err = translated(br, callEdit); err != nil {
		return SimpleFolder{}, err
	}
	rec, err := folderFrom(br, callFolder)
	if err != nil {
		return SimpleFolder{}, err
	}
	rec.FolderID = int(id)
	return MapSimple(rec)
}

// DeleteFolder deletes a folder.  Deleting is best effort: if the server
// reports any failure, the result is false without an error.  Only a
// connection failure is returned as an error.
func (a *API) DeleteFolder(ctx context.Context, id FolderID) (bool, error) {
	r, err := a.c.Invoke(ctx, web.FuncDeleteFolder, web.Args{"folderId": int(id)})
	if err != nil {
		return false, err
	}
	if !r.Success {
		logger.Debug2("folder %v was not deleted: %v", id, r)
		return false, nil
	}
	return true, nil
}

// AddObjectToFolder puts an object into a folder.  If the object is
// already in the folder, the outcome is web.NoOp.
func (a *API) AddObjectToFolder(ctx context.Context, folder FolderID, objectID int) (web.Outcome, error) {
	return a.objectCall(ctx, web.FuncAddObjectToFolder, folder, objectID)
}

// RemoveObjectFromFolder takes an object out of a folder.  If the object
// isn't in the folder, the outcome is web.NoOp.
func (a *API) RemoveObjectFromFolder(ctx context.Context, folder FolderID, objectID int) (web.Outcome, error) {
	return a.objectCall(ctx, web.FuncRemoveObjectFromFolder, folder, objectID)
}

func (a *API) objectCall(ctx context.Context, function string, folder FolderID, objectID int) (web.Outcome, error) {
	r, err := a.c.Invoke(ctx, function, web.Args{
		"folderId": int(folder),
		"objectId": objectID,
	})
	if err != nil {
		return web.Failure, err
	}
	return web.OutcomeOf(function, r, web.CodeNoOp)
}

// FoldersByObject gets the folders that an object is in.
func (a *API) FoldersByObject(ctx context.Context, objectID int) ([]SimpleFolder, error) {
	r, err := a.c.Call(ctx, web.FuncGetFoldersByObjectID, web.Args{"objectId": objectID})
	if err != nil {
		return nil, err
	}
	recs, ok, err := decodeListing(r, "folders")
	if err != nil {
		return nil, err
	}
	if !ok {
		return []SimpleFolder{}, nil
	}
	return MapSimpleList(recs)
}
