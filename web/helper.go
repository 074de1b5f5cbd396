package web

import (
	"net/url"
	"strings"

	"github.com/skillian/errors"
	"github.com/skillian/logging"
)

const (
	// FieldSep separates the components of a field path within a call
	// result, e.g. "folder.folderId".
	FieldSep = "."

	// RefPrefix starts the wire form of a result reference.
	RefPrefix = "$"
)

var (
	logger = logging.GetLogger("github.com/studiointeract/qbankapi2wrapper")
)

func parseURL(urlString string) (*url.URL, error) {
	urlURL, err := url.Parse(urlString)
	if err != nil {
		return nil, errors.ErrorfWithCause(
			err,
			"failed to parse %q as URL: %v",
			urlString, err)
	}
	if !urlURL.IsAbs() {
		return nil, errors.Errorf(
			"endpoint %q must be an absolute URL", urlString)
	}
	return urlURL, nil
}

// stringNotEmpty is the Go equivalent of an ArgumentNullException on a string
// argument in the .NET Common Language Runtime.
func stringNotEmpty(v, name string) (string, error) {
	if len(v) == 0 {
		return v, errors.Errorf("%q cannot be empty", name)
	}
	return v, nil
}

// truncate cuts s down to at most n bytes, marking the cut with "...".
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// joinField joins field path components with FieldSep.
func joinField(parts ...string) string {
	return strings.Join(parts, FieldSep)
}
