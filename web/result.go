package web

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/skillian/errors"
	"github.com/tidwall/gjson"
)

// Args are the named arguments of a remote call.  Values may be Refs when
// the call is part of a batch.
type Args map[string]interface{}

// RemoteError is the error record the server reports for a failed call.
type RemoteError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
}

// Result is the outcome of a single call: either a successful record or the
// server's error.
type Result struct {
	// Success is the server's success flag for the call.
	Success bool

	// Err holds the server's error when Success is false.
	Err *RemoteError

	// raw is the complete record, including the success flag.
	raw json.RawMessage
}

// envelope is used to validate and split a call result record.
type envelope struct {
	Success *bool        `json:"success"`
	Error   *RemoteError `json:"error"`
}

// parseResult validates a call result record.  A record that is not a JSON
// object or lacks a boolean success flag is malformed.
func parseResult(raw json.RawMessage) (Result, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Result{}, errors.Errorf(
			"result is not an object: %q", truncate(string(trimmed), 64))
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return Result{}, errors.ErrorfWithCause(
			err, "failed to unmarshal result envelope: %v", err)
	}
	if env.Success == nil {
		return Result{}, errors.Errorf("result has no success flag")
	}
	r := Result{Success: *env.Success, raw: trimmed}
	if !r.Success {
		r.Err = env.Error
		if r.Err == nil {
			r.Err = &RemoteError{Message: "unspecified error"}
		}
	}
	return r, nil
}

// SuccessResult creates a successful result from a record.  The record's
// success flag, if any, is overridden.
func SuccessResult(record map[string]interface{}) Result {
	m := make(map[string]interface{}, len(record)+1)
	for k, v := range record {
		m[k] = v
	}
	m["success"] = true
	raw, err := json.Marshal(m)
	if err != nil {
		panic(errors.ErrorfWithCause(
			err, "failed to marshal result record: %v", err))
	}
	return Result{Success: true, raw: raw}
}

// FailureResult creates a failed result carrying the given error.
func FailureResult(e RemoteError) Result {
	raw, err := json.Marshal(struct {
		Success bool        `json:"success"`
		Error   RemoteError `json:"error"`
	}{false, e})
	if err != nil {
		panic(errors.ErrorfWithCause(
			err, "failed to marshal error record: %v", err))
	}
	return Result{Success: false, Err: &e, raw: raw}
}

// Get looks up a field by its dotted path within the result.
func (r Result) Get(path string) gjson.Result {
	return gjson.GetBytes(r.raw, path)
}

// Has reports whether the result has a field at the given path.
func (r Result) Has(path string) bool {
	return r.Get(path).Exists()
}

// Decode unmarshals the field at path into v.  An empty path decodes the
// whole record.
func (r Result) Decode(path string, v interface{}) error {
	raw := []byte(r.raw)
	if path != "" {
		field := r.Get(path)
		if !field.Exists() {
			return errors.Errorf("result has no field %q", path)
		}
		raw = []byte(field.Raw)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.ErrorfWithCause(
			err, "failed to unmarshal field %q into %T: %v", path, v, err)
	}
	return nil
}

// Raw returns the record as received.
func (r Result) Raw() json.RawMessage { return r.raw }

// String implements fmt.Stringer.
func (r Result) String() string {
	if r.Success {
		return fmt.Sprintf("success: %s", truncate(string(r.raw), 128))
	}
	return fmt.Sprintf("failure: %s (code: %d, type: %q)",
		r.Err.Message, r.Err.Code, r.Err.Type)
}

// BatchResult maps call names to their results, remembering the order in
// which the calls were submitted.
type BatchResult struct {
	names   []string
	results map[string]Result
}

func newBatchResult(capacity int) BatchResult {
	return BatchResult{
		names:   make([]string, 0, capacity),
		results: make(map[string]Result, capacity),
	}
}

func (b *BatchResult) set(name string, r Result) {
	if _, ok := b.results[name]; !ok {
		b.names = append(b.names, name)
	}
	b.results[name] = r
}

// Result gets the named call's result.
func (b BatchResult) Result(name string) (Result, bool) {
	r, ok := b.results[name]
	return r, ok
}

// Names gets the names of the calls that have results, in submission
// order.
func (b BatchResult) Names() []string {
	return b.names
}

// Len gets the number of results.
func (b BatchResult) Len() int {
	return len(b.names)
}
