package main

import (
	"fmt"

	"github.com/studiointeract/qbankapi2wrapper/fs"
)

// ChildNotFound is returned when a folder path names a subfolder that
// doesn't exist.
type ChildNotFound struct {
	// Name is the name of the requested subfolder.
	Name string

	// Parent is the folder that was searched.  It is nil when the roots
	// were searched.
	Parent *fs.SimpleFolder
}

// MakeChildNotFound creates a ChildNotFound error.
func MakeChildNotFound(name string, parent *fs.SimpleFolder) ChildNotFound {
	return ChildNotFound{Name: name, Parent: parent}
}

// Error implements the Go error interface.
func (c ChildNotFound) Error() string {
	if c.Parent == nil {
		return fmt.Sprintf("child not found: %q", c.Name)
	}
	return fmt.Sprintf("child not found: %q in %v", c.Name, *c.Parent)
}
