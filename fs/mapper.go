package fs

import (
	"strings"
	"time"

	"github.com/skillian/errors"
	"github.com/studiointeract/qbankapi2wrapper/web"
)

// timeLayouts are the time stamp formats the server is known to send.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime parses a server time stamp.  Time stamps without a zone are
// UTC.  A time stamp in any other format is an error: the server is not
// supposed to send one.
func ParseTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("unrecognized time stamp: %q", v)
}

// PropertyFromRecord creates a Property from its raw record.
func PropertyFromRecord(rec web.PropertyRecord) Property {
	return Property{SystemName: rec.SystemName, Value: rec.Value}
}

// MapSimple creates a SimpleFolder from a folder record.  Any properties in
// the record are ignored.
func MapSimple(rec web.FolderRecord) (SimpleFolder, error) {
	created, err := ParseTime(rec.Created)
	if err != nil {
		return SimpleFolder{}, errors.ErrorfWithCause(
			err, "folder %d (%q) has a bad created time: %v",
			rec.FolderID, rec.Name, err)
	}
	updated, err := ParseTime(rec.Updated)
	if err != nil {
		return SimpleFolder{}, errors.ErrorfWithCause(
			err, "folder %d (%q) has a bad updated time: %v",
			rec.FolderID, rec.Name, err)
	}
	return SimpleFolder{
		ID:      FolderID(rec.FolderID),
		Name:    rec.Name,
		Tree:    rec.Tree,
		Owner:   rec.Owner,
		Created: created,
		Updated: updated,
	}, nil
}

// MapFull creates a Folder with its properties from a folder record.  The
// folder is not linked to any other folder.
func MapFull(rec web.FolderRecord) (*Folder, error) {
	sf, err := MapSimple(rec)
	if err != nil {
		return nil, err
	}
	f := &Folder{SimpleFolder: sf}
	if len(rec.Properties) > 0 {
		f.Properties = make([]Property, len(rec.Properties))
		for i, p := range rec.Properties {
			f.Properties[i] = PropertyFromRecord(p)
		}
	}
	return f, nil
}

// MapSimpleList maps every record in a listing.
func MapSimpleList(recs []web.FolderRecord) ([]SimpleFolder, error) {
	folders := make([]SimpleFolder, len(recs))
	for i, rec := range recs {
		f, err := MapSimple(rec)
		if err != nil {
			return nil, err
		}
		folders[i] = f
	}
	return folders, nil
}

// MapFullSet maps every record in a listing into a FolderSet, keyed by the
// records' folder IDs.
func MapFullSet(recs []web.FolderRecord) (*FolderSet, error) {
	set := NewFolderSet(len(recs))
	for _, rec := range recs {
		f, err := MapFull(rec)
		if err != nil {
			return nil, err
		}
		set.Put(f)
	}
	return set, nil
}
