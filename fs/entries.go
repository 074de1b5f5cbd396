package fs

// children contains a folder's subfolders indexed by their names and IDs.
type children struct {
	// items is all of the subfolders in the order they were added.
	items []*Folder

	// names holds a mapping of the subfolder names to their indexes in
	// the items slice.  If two subfolders share a name, the first wins.
	names map[string]int

	// ids holds a mapping of the subfolder IDs to their indexes in the
	// items slice.
	ids map[FolderID]int
}

func (c *children) add(f *Folder) {
	if c.ids == nil {
		c.names = make(map[string]int)
		c.ids = make(map[FolderID]int)
	}
	i := len(c.items)
	c.items = append(c.items, f)
	c.ids[f.ID] = i
	if _, ok := c.names[f.Name]; !ok {
		c.names[f.Name] = i
	}
}

func (c *children) reset() {
	c.items = nil
	c.names = nil
	c.ids = nil
}

func (c *children) byID(id FolderID) (*Folder, bool) {
	i, ok := c.ids[id]
	if ok {
		return c.items[i], true
	}
	return nil, false
}

func (c *children) byName(name string) (*Folder, bool) {
	i, ok := c.names[name]
	if ok {
		return c.items[i], true
	}
	return nil, false
}
