package web

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/skillian/errors"
	"github.com/tidwall/gjson"
)

// Remote function names understood by the QBank folder service.  The
// server matches them exactly, including their inconsistent casing.
const (
	FuncBatch                  = "batch"
	FuncGetFolderStructure     = "getfolderstructure"
	FuncGetFolderInformation   = "getfolderinformation"
	FuncGetFoldersByObjectID   = "getfoldersbyobjectid"
	FuncCreateFolder           = "createfolder"
	FuncEditFolder             = "editfolder"
	FuncDeleteFolder           = "deleteFolder"
	FuncAddObjectToFolder      = "addobjectTofolder"
	FuncRemoveObjectFromFolder = "removeobjectfromfolder"
)

// FolderRecord is a folder as the server sends it.  It is only used while
// mapping a response into the fs package's entities.
type FolderRecord struct {
	// FolderID is the folder's unique ID.  Single folder lookups
	// (getfolderinformation) do not always include it.
	FolderID int `json:"folderId"`

	// Name is the folder's name within its parent.
	Name string `json:"name"`

	// Tree is the folder's ancestry path.
	Tree string `json:"tree"`

	// Owner identifies the user that owns the folder.
	Owner string `json:"owner"`

	// Created and Updated are textual time stamps.
	Created string `json:"created"`
	Updated string `json:"updated"`

	// Properties is only populated when the request asked for them.
	Properties []PropertyRecord `json:"properties,omitempty"`
}

// UnmarshalJSON decodes a folder record leniently.  The server sends folder
// IDs as numbers or numeric strings and owners as strings or numbers.
// Missing and null fields are left zero.
func (r *FolderRecord) UnmarshalJSON(b []byte) error {
	if !gjson.ValidBytes(b) {
		return errors.Errorf("invalid folder record: %.64s", b)
	}
	v := gjson.ParseBytes(b)
	if v.Type == gjson.Null {
		return nil
	}
	if !v.IsObject() {
		return errors.Errorf("folder record is not an object: %.64s", b)
	}
	id, err := lenientInt(v.Get("folderId"))
	if err != nil {
		return err
	}
	rec := FolderRecord{
		FolderID: id,
		Name:     lenientString(v.Get("name")),
		Tree:     lenientString(v.Get("tree")),
		Owner:    lenientString(v.Get("owner")),
		Created:  lenientString(v.Get("created")),
		Updated:  lenientString(v.Get("updated")),
	}
	if props := v.Get("properties"); props.IsArray() {
		if err := json.Unmarshal([]byte(props.Raw), &rec.Properties); err != nil {
			return errors.ErrorfWithCause(
				err, "invalid properties of folder %d: %v", id, err)
		}
	} else if props.Exists() && props.Type != gjson.Null {
		logger.Debug2("ignoring properties of folder %d: %s", id, props.Raw)
	}
	*r = rec
	return nil
}

func lenientInt(field gjson.Result) (int, error) {
	switch field.Type {
	case gjson.Null:
		return 0, nil
	case gjson.Number:
		return int(field.Int()), nil
	case gjson.String:
		s := strings.TrimSpace(field.Str)
		if s == "" {
			return 0, nil
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, errors.ErrorfWithCause(
				err, "invalid folder ID %q", field.Str)
		}
		return v, nil
	}
	return 0, errors.Errorf("invalid folder ID %s", field.Raw)
}

func lenientString(field gjson.Result) string {
	if field.Type == gjson.Null {
		return ""
	}
	return field.String()
}

// PropertyRecord is a raw system name and value pair attached to a folder.
type PropertyRecord struct {
	SystemName string      `json:"systemName"`
	Value      interface{} `json:"value"`
}

// batchCall is the wire form of a Call inside of a batch request.
type batchCall struct {
	Name      string `json:"name"`
	Function  string `json:"function"`
	Arguments Args   `json:"arguments"`
}

// batchRequest is the body of a "batch" round trip.
type batchRequest struct {
	Calls []batchCall `json:"calls"`
}
