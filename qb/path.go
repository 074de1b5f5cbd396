package main

import (
	"path"
	"strings"

	"github.com/skillian/errors"
	"github.com/studiointeract/qbankapi2wrapper/fs"
)

// PathSeparator separates folder names in the paths given to this command.
//
// QBank itself only knows folders by ID and ancestry paths of IDs; name
// paths are resolved against a fetched tree.
const PathSeparator = "/"

// FolderPath is a path of folder names from a root folder down.
type FolderPath []string

// FolderPathFromString creates a FolderPath from a "/" separated string.
// Empty elements are dropped.
func FolderPathFromString(v string) FolderPath {
	v = path.Clean(PathSeparator + strings.TrimSpace(v))
	elems := strings.Split(v, PathSeparator)
	p := make(FolderPath, 0, len(elems))
	for _, elem := range elems {
		if elem != "" {
			p = append(p, elem)
		}
	}
	return p
}

// String produces a string representation of the path.
func (p FolderPath) String() string {
	return PathSeparator + strings.Join(p, PathSeparator)
}

// Resolve finds the folder the path leads to, starting from the given
// roots.  If several folders on the way share a name, the first one wins.
func (p FolderPath) Resolve(roots []*fs.Folder) (*fs.Folder, error) {
	if len(p) == 0 {
		return nil, errors.Errorf("empty folder path")
	}
	var f *fs.Folder
	for _, r := range roots {
		if r.Name == p[0] {
			f = r
			break
		}
	}
	if f == nil {
		return nil, MakeChildNotFound(p[0], nil)
	}
	for _, name := range p[1:] {
		ch, ok := f.ChildByName(name)
		if !ok {
			return nil, MakeChildNotFound(name, &f.SimpleFolder)
		}
		f = ch
	}
	logger.Debug2("resolved %v to %v", p, f.SimpleFolder)
	return f, nil
}
