package fs

import (
	"strconv"
	"strings"
)

// TreeSep is the separator between the IDs in a folder's ancestry path.
// Paths separated with "/" are accepted too.
const TreeSep = "."

func isTreeSep(r rune) bool {
	return strings.ContainsRune(TreeSep+"/", r)
}

// ParentIDOf derives the ID of a folder's parent from the folder's ID and
// its ancestry path.  The path may or may not end with the folder's own ID;
// either way, the parent is the ID just before the folder.  ok is false when
// the path names no parent.
func ParentIDOf(id FolderID, tree string) (parent FolderID, ok bool) {
	segments := strings.FieldsFunc(tree, isTreeSep)
	if n := len(segments); n > 0 && segments[n-1] == id.String() {
		segments = segments[:n-1]
	}
	if len(segments) == 0 {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(segments[len(segments)-1]))
	if err != nil || FolderID(v) == id {
		return 0, false
	}
	return FolderID(v), true
}

// FolderSet is a collection of folders keyed by their IDs that remembers
// the order in which the folders were put into it.
type FolderSet struct {
	ids     []FolderID
	folders map[FolderID]*Folder
}

// NewFolderSet creates an empty FolderSet.
func NewFolderSet(capacity int) *FolderSet {
	return &FolderSet{
		ids:     make([]FolderID, 0, capacity),
		folders: make(map[FolderID]*Folder, capacity),
	}
}

// Put adds a folder to the set.  A folder with the same ID as one already
// in the set replaces it but keeps its position.
func (s *FolderSet) Put(f *Folder) {
	if _, ok := s.folders[f.ID]; !ok {
		s.ids = append(s.ids, f.ID)
	}
	s.folders[f.ID] = f
}

// Get gets a folder by its ID.
func (s *FolderSet) Get(id FolderID) (*Folder, bool) {
	f, ok := s.folders[id]
	return f, ok
}

// Len gets the number of folders in the set.
func (s *FolderSet) Len() int { return len(s.ids) }

// Folders gets the folders in the order they were first put into the set.
func (s *FolderSet) Folders() []*Folder {
	folders := make([]*Folder, len(s.ids))
	for i, id := range s.ids {
		folders[i] = s.folders[id]
	}
	return folders
}

// BuildTree links the folders in the set to their parents and returns the
// folders that have no parent within the set.  A folder whose parent was
// not fetched is a root of the returned view even if it isn't a root on
// the server.
//
// Roots and children are ordered the same way as the set.  Any links from
// an earlier BuildTree are discarded first, so building the same set twice
// gives the same tree.
func BuildTree(set *FolderSet) []*Folder {
	folders := set.Folders()
	parents := make(map[FolderID]FolderID, len(folders))
	for _, f := range folders {
		f.parent = nil
		f.children.reset()
		if pid, ok := f.ParentID(); ok {
			parents[f.ID] = pid
		}
	}
	roots := make([]*Folder, 0, 1)
	for _, f := range folders {
		pid, ok := parents[f.ID]
		if !ok {
			roots = append(roots, f)
			continue
		}
		p, ok := set.Get(pid)
		if !ok {
			logger.Debug2(
				"parent %v of %v was not fetched; "+
					"treating it as a root",
				pid, f.SimpleFolder)
			roots = append(roots, f)
			continue
		}
		if isAncestor(f, p) {
			logger.Warn(
				"ancestry of %v loops back through %v; "+
					"treating it as a root",
				f.SimpleFolder, p.SimpleFolder)
			roots = append(roots, f)
			continue
		}
		f.parent = p
		p.children.add(f)
	}
	return roots
}

// isAncestor reports whether a is f or one of f's linked ancestors.
func isAncestor(a, f *Folder) bool {
	for ; f != nil; f = f.parent {
		if f == a {
			return true
		}
	}
	return false
}
