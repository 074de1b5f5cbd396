package fs

import (
	"fmt"
	"strconv"
	"time"

	"github.com/skillian/logging"
)

var (
	logger = logging.GetLogger("github.com/studiointeract/qbankapi2wrapper")
)

// FolderID is the ID of a QBank folder.
type FolderID int

// String implements fmt.Stringer.
func (id FolderID) String() string { return strconv.Itoa(int(id)) }

// Property is a system name and value pair attached to a folder.
type Property struct {
	// SystemName is the property's name as QBank knows it internally.
	SystemName string

	// Value is the property's value as decoded from JSON.
	Value interface{}
}

// SimpleFolder is a folder without its properties or subfolders.
type SimpleFolder struct {
	// ID is the folder's unique ID.
	ID FolderID

	// Name is the name of the folder within its parent.
	Name string

	// Tree is the folder's ancestry path: the IDs of the folders above it
	// (and sometimes its own) separated by TreeSep.
	Tree string

	// Owner identifies the folder's owner.
	Owner string

	// Created and Updated are the folder's time stamps.
	Created time.Time
	Updated time.Time
}

// ParentID derives the ID of the folder's parent from its ancestry path.
// ok is false if the path names no parent.
func (f SimpleFolder) ParentID() (id FolderID, ok bool) {
	return ParentIDOf(f.ID, f.Tree)
}

// String gets a string representation of the folder.
func (f SimpleFolder) String() string {
	return fmt.Sprintf("Folder %q, (ID: %d)", f.Name, f.ID)
}

// Folder is a folder with its properties.  Folders returned from a tree
// operation are also linked to their parent and subfolders.
type Folder struct {
	SimpleFolder

	// Properties holds the folder's properties in the order the server
	// sent them.
	Properties []Property

	// parent is set by BuildTree.  The parent owns the folder through its
	// children, not the other way around.
	parent *Folder

	children children
}

// Parent gets the folder's parent in the tree it was built into, or nil for
// a root.
func (f *Folder) Parent() *Folder { return f.parent }

// Children gets the folder's subfolders.  The slice is borrowed, so do not
// modify it.
func (f *Folder) Children() []*Folder { return f.children.items }

// Child gets a subfolder by its ID.
func (f *Folder) Child(id FolderID) (*Folder, bool) {
	return f.children.byID(id)
}

// ChildByName gets a subfolder by its name.
func (f *Folder) ChildByName(name string) (*Folder, bool) {
	return f.children.byName(name)
}

// Property gets a property by its system name.  If the folder has the same
// property more than once, the last one wins.
func (f *Folder) Property(systemName string) (Property, bool) {
	for i := len(f.Properties) - 1; i >= 0; i-- {
		if f.Properties[i].SystemName == systemName {
			return f.Properties[i], true
		}
	}
	return Property{}, false
}

// Walk calls fn on the folder and then on each of its descendants, depth
// first.  depth is 0 for f itself.  Walking stops at the first error.
func (f *Folder) Walk(fn func(f *Folder, depth int) error) error {
	return f.walk(fn, 0)
}

func (f *Folder) walk(fn func(f *Folder, depth int) error, depth int) error {
	if err := fn(f, depth); err != nil {
		return err
	}
	for _, ch := range f.children.items {
		if err := ch.walk(fn, depth+1); err != nil {
			return err
		}
	}
	return nil
}
