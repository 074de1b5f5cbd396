package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func folder(id FolderID, name, tree string) *Folder {
	return &Folder{SimpleFolder: SimpleFolder{ID: id, Name: name, Tree: tree}}
}

func setOf(folders ...*Folder) *FolderSet {
	set := NewFolderSet(len(folders))
	for _, f := range folders {
		set.Put(f)
	}
	return set
}

func ids(folders []*Folder) []FolderID {
	res := make([]FolderID, len(folders))
	for i, f := range folders {
		res[i] = f.ID
	}
	return res
}

func TestParentIDOf(t *testing.T) {
	tests := []struct {
		name   string
		id     FolderID
		tree   string
		parent FolderID
		ok     bool
	}{
		{"root level", 42, "0", 0, true},
		{"without own ID", 3, "1.2", 2, true},
		{"with own ID", 3, "1.2.3", 2, true},
		{"slashes", 3, "1/2/3", 2, true},
		{"mixed separators", 4, "1.2/3", 3, true},
		{"trailing separator", 3, "1.2.", 2, true},
		{"empty", 3, "", 0, false},
		{"only own ID", 3, "3", 0, false},
		{"garbage", 3, "1.x", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent, ok := ParentIDOf(tt.id, tt.tree)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.parent, parent)
			}
		})
	}
}

func TestBuildTreeUnrelatedFoldersAreRoots(t *testing.T) {
	set := setOf(folder(1, "a", "0"), folder(2, "b", "0"), folder(3, "c", ""))
	roots := BuildTree(set)
	assert.Equal(t, []FolderID{1, 2, 3}, ids(roots))
	for _, r := range roots {
		assert.Nil(t, r.Parent())
		assert.Empty(t, r.Children())
	}
}

func TestBuildTreeChain(t *testing.T) {
	a := folder(1, "A", "0")
	b := folder(2, "B", "0.1")
	c := folder(3, "C", "0.1.2.3")
	roots := BuildTree(setOf(c, b, a))
	require.Equal(t, []FolderID{1}, ids(roots))
	assert.Same(t, a, b.Parent())
	assert.Same(t, b, c.Parent())

	got, ok := a.ChildByName("B")
	require.True(t, ok)
	assert.Same(t, b, got)
	got, ok = b.Child(3)
	require.True(t, ok)
	assert.Same(t, c, got)
	_, ok = a.Child(3)
	assert.False(t, ok, "grandchildren are not children")

	var walked []FolderID
	var depths []int
	require.NoError(t, a.Walk(func(f *Folder, depth int) error {
		walked = append(walked, f.ID)
		depths = append(depths, depth)
		return nil
	}))
	assert.Equal(t, []FolderID{1, 2, 3}, walked)
	assert.Equal(t, []int{0, 1, 2}, depths)
}

func TestBuildTreeIsIdempotent(t *testing.T) {
	set := setOf(folder(1, "A", "0"), folder(2, "B", "1"), folder(3, "C", "1"))
	first := BuildTree(set)
	second := BuildTree(set)
	assert.Equal(t, ids(first), ids(second))
	a, _ := set.Get(1)
	assert.Equal(t, []FolderID{2, 3}, ids(a.Children()))
}

func TestBuildTreeMissingParentIsRoot(t *testing.T) {
	set := setOf(folder(5, "orphan", "0.4"), folder(6, "child", "0.4.5"))
	roots := BuildTree(set)
	assert.Equal(t, []FolderID{5}, ids(roots))
	orphan, _ := set.Get(5)
	assert.Equal(t, []FolderID{6}, ids(orphan.Children()))
}

func TestBuildTreeBreaksCycles(t *testing.T) {
	a := folder(1, "A", "2")
	b := folder(2, "B", "1")
	roots := BuildTree(setOf(a, b))
	require.Len(t, roots, 1)
	assert.Same(t, b, roots[0])
	assert.Same(t, b, a.Parent())
	assert.Nil(t, b.Parent())
}

func TestBuildTreeKeepsSetOrder(t *testing.T) {
	set := setOf(
		folder(10, "root", "0"),
		folder(13, "z", "10"),
		folder(11, "a", "10"),
		folder(12, "m", "10"),
	)
	roots := BuildTree(set)
	require.Len(t, roots, 1)
	assert.Equal(t, []FolderID{13, 11, 12}, ids(roots[0].Children()))
}

func TestFolderSetPutReplacesInPlace(t *testing.T) {
	set := setOf(folder(1, "a", ""), folder(2, "b", ""))
	set.Put(folder(1, "a2", ""))
	assert.Equal(t, 2, set.Len())
	folders := set.Folders()
	assert.Equal(t, "a2", folders[0].Name)
	assert.Equal(t, "b", folders[1].Name)
}

func TestFolderProperty(t *testing.T) {
	f := folder(1, "a", "")
	f.Properties = []Property{
		{SystemName: "color", Value: "red"},
		{SystemName: "color", Value: "blue"},
	}
	p, ok := f.Property("color")
	require.True(t, ok)
	assert.Equal(t, "blue", p.Value)
	_, ok = f.Property("size")
	assert.False(t, ok)
}
