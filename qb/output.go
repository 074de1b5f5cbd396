package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/skillian/errors"
	"github.com/studiointeract/qbankapi2wrapper/fs"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// folderView is how a folder is written as JSON or YAML.
type folderView struct {
	ID         int                    `json:"id" yaml:"id"`
	Name       string                 `json:"name" yaml:"name"`
	Tree       string                 `json:"tree" yaml:"tree"`
	Owner      string                 `json:"owner,omitempty" yaml:"owner,omitempty"`
	Created    time.Time              `json:"created" yaml:"created"`
	Updated    time.Time              `json:"updated" yaml:"updated"`
	Properties map[string]interface{} `json:"properties,omitempty" yaml:"properties,omitempty"`
	Children   []folderView           `json:"children,omitempty" yaml:"children,omitempty"`
}

func simpleView(f fs.SimpleFolder) folderView {
	return folderView{
		ID:      int(f.ID),
		Name:    f.Name,
		Tree:    f.Tree,
		Owner:   f.Owner,
		Created: f.Created,
		Updated: f.Updated,
	}
}

func fullView(f *fs.Folder) folderView {
	v := simpleView(f.SimpleFolder)
	if len(f.Properties) > 0 {
		v.Properties = make(map[string]interface{}, len(f.Properties))
		for _, p := range f.Properties {
			v.Properties[p.SystemName] = p.Value
		}
	}
	for _, ch := range f.Children() {
		v.Children = append(v.Children, fullView(ch))
	}
	return v
}

// printer writes command results in the selected format.
type printer struct {
	w      io.Writer
	format string
}

func newPrinter(w io.Writer, format string) (*printer, error) {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return &printer{w: w, format: format}, nil
	}
	return nil, errors.Errorf(
		"unknown output format %q (expected %s, %s or %s)",
		format, formatTable, formatJSON, formatYAML)
}

func (p *printer) encode(v interface{}) error {
	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return errors.Errorf("cannot encode %T as %s", v, p.format)
}

var folderHeader = []string{"ID", "Name", "Tree", "Owner", "Created", "Updated"}

func folderRow(name string, f fs.SimpleFolder) []string {
	return []string{
		f.ID.String(), name, f.Tree, f.Owner,
		formatTime(f.Created), formatTime(f.Updated),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// folders writes a flat listing.
func (p *printer) folders(folders []fs.SimpleFolder) error {
	if p.format != formatTable {
		views := make([]folderView, len(folders))
		for i, f := range folders {
			views[i] = simpleView(f)
		}
		return p.encode(views)
	}
	table := tablewriter.NewWriter(p.w)
	table.Header(cells(folderHeader)...)
	for _, f := range folders {
		if err := table.Append(cells(folderRow(f.Name, f))...); err != nil {
			return err
		}
	}
	return table.Render()
}

// folder writes a single folder.
func (p *printer) folder(f fs.SimpleFolder) error {
	if p.format != formatTable {
		return p.encode(simpleView(f))
	}
	return p.folders([]fs.SimpleFolder{f})
}

// tree writes folders with their properties and subfolders.  In a table,
// subfolders are indented under their parents.
func (p *printer) tree(roots []*fs.Folder) error {
	if p.format != formatTable {
		views := make([]folderView, len(roots))
		for i, r := range roots {
			views[i] = fullView(r)
		}
		return p.encode(views)
	}
	table := tablewriter.NewWriter(p.w)
	table.Header(append(cells(folderHeader), "Properties")...)
	for _, r := range roots {
		err := r.Walk(func(f *fs.Folder, depth int) error {
			row := folderRow(strings.Repeat("  ", depth)+f.Name, f.SimpleFolder)
			return table.Append(cells(append(row, formatProperties(f.Properties)))...)
		})
		if err != nil {
			return err
		}
	}
	return table.Render()
}

func formatProperties(props []fs.Property) string {
	parts := make([]string, len(props))
	for i, prop := range props {
		parts[i] = fmt.Sprintf("%s=%v", prop.SystemName, prop.Value)
	}
	return strings.Join(parts, ", ")
}

// message writes a short result, e.g. the outcome of a change.
func (p *printer) message(key string, value interface{}) error {
	if p.format != formatTable {
		return p.encode(map[string]interface{}{key: value})
	}
	_, err := fmt.Fprintf(p.w, "%s: %v\n", key, value)
	return err
}

// settings writes name and value pairs in the order given.
func (p *printer) settings(pairs [][2]string) error {
	if p.format != formatTable {
		m := make(map[string]string, len(pairs))
		for _, kv := range pairs {
			m[kv[0]] = kv[1]
		}
		return p.encode(m)
	}
	table := tablewriter.NewWriter(p.w)
	table.Header("Setting", "Value")
	for _, kv := range pairs {
		if err := table.Append(kv[0], kv[1]); err != nil {
			return err
		}
	}
	return table.Render()
}

// cells converts a row of strings for tablewriter.
func cells(row []string) []interface{} {
	cs := make([]interface{}, len(row))
	for i, c := range row {
		cs[i] = c
	}
	return cs
}
