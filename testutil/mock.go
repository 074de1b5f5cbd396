// Package testutil provides a mock QBank server for testing clients.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// MockServer is an httptest.Server that answers calls to QBank functions.
type MockServer struct {
	*httptest.Server
	t *testing.T

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	calls    []string
}

// NewMockServer creates and starts a new mock server.  It is closed when
// the test finishes.
func NewMockServer(t *testing.T) *MockServer {
	ms := &MockServer{
		t:        t,
		handlers: make(map[string]http.HandlerFunc),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", ms.handleRequest)

	ms.Server = httptest.NewServer(mux)
	t.Cleanup(ms.Close)
	return ms
}

// On registers a handler for a remote function.  Function names are case
// sensitive, as they are on a real server.
func (ms *MockServer) On(function string, handler http.HandlerFunc) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.handlers[function] = handler
}

// OnJSON registers a handler that answers a remote function with the given
// status code and JSON response.
func (ms *MockServer) OnJSON(function string, statusCode int, response interface{}) {
	ms.On(function, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if response != nil {
			JSONResponse(ms.t, w, response)
		}
	})
}

// Calls gets the functions called so far, in order.
func (ms *MockServer) Calls() []string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]string(nil), ms.calls...)
}

func (ms *MockServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	function := strings.TrimPrefix(r.URL.Path, "/")
	if i := strings.LastIndex(function, "/"); i >= 0 {
		function = function[i+1:]
	}
	ms.mu.Lock()
	ms.calls = append(ms.calls, function)
	handler, ok := ms.handlers[function]
	ms.mu.Unlock()
	if !ok {
		ms.t.Logf("no handler registered for %s", function)
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		ms.t.Errorf("expected method %s, got %s", http.MethodPost, r.Method)
	}
	handler(w, r)
}

// Success builds a successful call result record from fields.
func Success(fields map[string]interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		m[k] = v
	}
	m["success"] = true
	return m
}

// Failure builds a failed call result record.
func Failure(message string, code int, typ string) map[string]interface{} {
	return map[string]interface{}{
		"success": false,
		"error": map[string]interface{}{
			"message": message,
			"code":    code,
			"type":    typ,
		},
	}
}

// Batch builds a batch response from call names and their results.
func Batch(results map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"results": results}
}

// AssertHeader asserts that a request header has the expected value.
func AssertHeader(t *testing.T, r *http.Request, key, expected string) {
	t.Helper()
	actual := r.Header.Get(key)
	if actual != expected {
		t.Errorf("expected header %s=%q, got %q", key, expected, actual)
	}
}

// DecodeBody decodes the JSON request body into v.
func DecodeBody(t *testing.T, r *http.Request, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode request body: %v", err)
	}
}

// JSONResponse writes a JSON response to the response writer.
func JSONResponse(t *testing.T, w http.ResponseWriter, data interface{}) {
	t.Helper()
	if err := json.NewEncoder(w).Encode(data); err != nil {
		t.Errorf("failed to encode JSON response: %v", err)
	}
}
