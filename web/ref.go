package web

import (
	"encoding/json"
	"strings"

	"github.com/skillian/errors"
)

// Ref is an argument value that refers to a field in the result of an
// earlier call in the same batch.  It is sent to the server as
// "$<call>.<field>" and resolved locally when the batch is simulated.
//
// Only Ref values are treated as references: a plain string argument that
// happens to start with "$" is passed through untouched.
type Ref struct {
	// Call is the name of the earlier call in the batch.
	Call string

	// Field is the dotted path of the field within that call's result.
	Field string
}

// RefTo creates a reference to the given field of the named call's result.
func RefTo(call string, field ...string) Ref {
	return Ref{Call: call, Field: joinField(field...)}
}

// ParseRef parses the wire form of a reference.
func ParseRef(v string) (Ref, error) {
	if !strings.HasPrefix(v, RefPrefix) {
		return Ref{}, errors.Errorf(
			"reference %q must start with %q", v, RefPrefix)
	}
	parts := strings.SplitN(v[len(RefPrefix):], FieldSep, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Ref{}, errors.Errorf(
			"reference %q must have the form %s<call>%s<field>",
			v, RefPrefix, FieldSep)
	}
	return Ref{Call: parts[0], Field: parts[1]}, nil
}

// String implements fmt.Stringer with the wire form of the reference.
func (r Ref) String() string {
	return RefPrefix + r.Call + FieldSep + r.Field
}

// MarshalJSON implements json.Marshaler so that references can be chained
// by the server.
func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// refsIn collects the references within an argument value, descending into
// nested maps and slices.
func refsIn(v interface{}, refs []Ref) []Ref {
	switch v := v.(type) {
	case Ref:
		return append(refs, v)
	case *Ref:
		if v != nil {
			return append(refs, *v)
		}
	case Args:
		for _, x := range v {
			refs = refsIn(x, refs)
		}
	case map[string]interface{}:
		for _, x := range v {
			refs = refsIn(x, refs)
		}
	case []interface{}:
		for _, x := range v {
			refs = refsIn(x, refs)
		}
	}
	return refs
}

// resolveFunc looks up the value of a reference.  ok is false when the
// reference cannot be satisfied.
type resolveFunc func(r Ref) (value interface{}, ok bool)

// substitute returns a copy of v with every reference replaced by the value
// resolve produces for it.  The first reference that cannot be resolved is
// returned with ok set to false.
func substitute(v interface{}, resolve resolveFunc) (res interface{}, failed Ref, ok bool) {
	switch v := v.(type) {
	case Ref:
		x, ok := resolve(v)
		return x, v, ok
	case *Ref:
		if v == nil {
			return v, Ref{}, true
		}
		x, ok := resolve(*v)
		return x, *v, ok
	case Args:
		m, failed, ok := substituteMap(v, resolve)
		return Args(m), failed, ok
	case map[string]interface{}:
		return substituteMap(v, resolve)
	case []interface{}:
		s := make([]interface{}, len(v))
		for i, x := range v {
			if s[i], failed, ok = substitute(x, resolve); !ok {
				return nil, failed, false
			}
		}
		return s, Ref{}, true
	}
	return v, Ref{}, true
}

func substituteMap(m map[string]interface{}, resolve resolveFunc) (map[string]interface{}, Ref, bool) {
	m2 := make(map[string]interface{}, len(m))
	for k, x := range m {
		y, failed, ok := substitute(x, resolve)
		if !ok {
			return nil, failed, false
		}
		m2[k] = y
	}
	return m2, Ref{}, true
}
