package web

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) RoundTrip(ctx context.Context, function string, body interface{}) (json.RawMessage, error) {
	args := m.Called(ctx, function, body)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func TestChainedBatchIsOneRoundTrip(t *testing.T) {
	m := &mockTransport{}
	m.On("RoundTrip", mock.Anything, FuncBatch, mock.MatchedBy(func(b batchRequest) bool {
		if len(b.Calls) != 2 {
			return false
		}
		js, err := json.Marshal(b)
		if err != nil {
			return false
		}
		return assert.Contains(t, string(js), `"folderId":"$creation.folderId"`)
	})).Return(raw(`{"results": {
		"creation": {"success": true, "folderId": 7},
		"folder": {"success": true, "folder": {"name": "x"}}
	}}`), nil).Once()

	c := NewClientWithTransport(m)
	br, err := c.Batch(context.Background(),
		Call{Name: "creation", Function: FuncCreateFolder, Args: Args{"name": "x"}},
		Call{Name: "folder", Function: FuncGetFolderInformation, Args: Args{"folderId": RefTo("creation", "folderId")}},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, br.Len())
	assert.Equal(t, uint64(1), c.NumRequests())
	m.AssertExpectations(t)
}

func TestBatchIndependentFailures(t *testing.T) {
	m := &mockTransport{}
	m.On("RoundTrip", mock.Anything, FuncBatch, mock.Anything).Return(raw(`{"results": {
		"first": {"success": false, "error": {"message": "Unknown folder", "code": 4, "type": "NotFound"}},
		"second": {"success": true, "folder": {"name": "Pics"}}
	}}`), nil)

	c := NewClientWithTransport(m)
	br, err := c.Batch(context.Background(),
		Call{Name: "first", Function: FuncGetFolderInformation, Args: Args{"folderId": 1}},
		Call{Name: "second", Function: FuncGetFolderInformation, Args: Args{"folderId": 2}},
	)
	require.NoError(t, err)

	first, ok := br.Result("first")
	require.True(t, ok)
	second, ok := br.Result("second")
	require.True(t, ok)

	err = Translate("first", first)
	require.Error(t, err)
	ae, ok := IsApplicationError(err)
	require.True(t, ok)
	assert.Equal(t, "first", ae.Call)
	assert.Equal(t, 4, ae.Code)

	assert.NoError(t, Translate("second", second))
	assert.Equal(t, "Pics", second.Get("folder.name").String())
}

func TestChainedBatchMalformed(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"not an object", `"ok"`},
		{"no results", `{"success": true}`},
		{"bad sub-result", `{"results": {"first": {"success": true}, "second": {"data": 1}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockTransport{}
			m.On("RoundTrip", mock.Anything, FuncBatch, mock.Anything).Return(raw(tt.reply), nil)
			c := NewClientWithTransport(m)
			_, err := c.Batch(context.Background(),
				Call{Name: "first", Function: FuncGetFolderInformation},
				Call{Name: "second", Function: FuncGetFolderInformation},
			)
			require.Error(t, err)
			assert.True(t, IsConnectionError(err), "expected *ConnectionError, got %T: %v", err, err)
		})
	}
}

func TestChainedBatchSkippedCallHasNoResult(t *testing.T) {
	m := &mockTransport{}
	m.On("RoundTrip", mock.Anything, FuncBatch, mock.Anything).Return(raw(`{"results": {
		"creation": {"success": false, "error": {"message": "Name taken", "code": 7, "type": "Conflict"}}
	}}`), nil)
	c := NewClientWithTransport(m)
	br, err := c.Batch(context.Background(),
		Call{Name: "creation", Function: FuncCreateFolder, Args: Args{"name": "x"}},
		Call{Name: "folder", Function: FuncGetFolderInformation, Args: Args{"folderId": RefTo("creation", "folderId")}},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"creation"}, br.Names())
	_, ok := br.Result("folder")
	assert.False(t, ok)

	creation, ok := br.Result("creation")
	require.True(t, ok)
	ae, ok := IsApplicationError(Translate("creation", creation))
	require.True(t, ok)
	assert.Equal(t, 7, ae.Code)
}

func TestChainedBatchRejectedAsAWhole(t *testing.T) {
	m := &mockTransport{}
	m.On("RoundTrip", mock.Anything, FuncBatch, mock.Anything).Return(raw(
		`{"success": false, "error": {"message": "Too many calls", "code": 12, "type": "Batch"}}`), nil)
	c := NewClientWithTransport(m)
	_, err := c.Batch(context.Background(), Call{Name: "first", Function: FuncGetFolderInformation})
	ae, ok := IsApplicationError(err)
	require.True(t, ok, "expected *ApplicationError, got %T: %v", err, err)
	assert.Equal(t, FuncBatch, ae.Call)
	assert.Equal(t, 12, ae.Code)
}

func TestTransportErrorsBecomeConnectionErrors(t *testing.T) {
	m := &mockTransport{}
	cause := stderrors.New("connection reset")
	m.On("RoundTrip", mock.Anything, FuncDeleteFolder, mock.Anything).Return(nil, cause)
	c := NewClientWithTransport(m)
	_, err := c.Invoke(context.Background(), FuncDeleteFolder, Args{"folderId": 7})
	require.Error(t, err)
	assert.True(t, IsConnectionError(err))
	assert.True(t, stderrors.Is(err, cause))
}

func TestSimulatedBatchSubstitutesReferences(t *testing.T) {
	m := &mockTransport{}
	m.On("RoundTrip", mock.Anything, FuncCreateFolder, mock.Anything).
		Return(raw(`{"success": true, "folderId": 42}`), nil).Once()
	m.On("RoundTrip", mock.Anything, FuncGetFolderInformation, mock.MatchedBy(func(a Args) bool {
		return a["folderId"] == float64(42) && a["literal"] == "$creation.folderId"
	})).Return(raw(`{"success": true, "folder": {"name": "New"}}`), nil).Once()

	c := NewClientWithTransport(m, WithServerChaining(false))
	br, err := c.Batch(context.Background(),
		Call{Name: "creation", Function: FuncCreateFolder, Args: Args{"name": "New"}},
		Call{Name: "folder", Function: FuncGetFolderInformation, Args: Args{
			"folderId": RefTo("creation", "folderId"),
			"literal":  "$creation.folderId",
		}},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"creation", "folder"}, br.Names())
	r, _ := br.Result("folder")
	assert.True(t, r.Success)
	assert.Equal(t, uint64(2), c.NumRequests())
	m.AssertExpectations(t)
}

func TestSimulatedBatchSkipsDependentsOfFailures(t *testing.T) {
	m := &mockTransport{}
	m.On("RoundTrip", mock.Anything, FuncCreateFolder, mock.Anything).Return(raw(
		`{"success": false, "error": {"message": "Permission denied", "code": 3, "type": "Permission"}}`), nil)
	m.On("RoundTrip", mock.Anything, FuncGetFolderStructure, mock.Anything).Return(raw(
		`{"success": true, "data": []}`), nil)

	c := NewClientWithTransport(m, WithServerChaining(false))
	br, err := c.Batch(context.Background(),
		Call{Name: "creation", Function: FuncCreateFolder, Args: Args{"name": "New"}},
		Call{Name: "listing", Function: FuncGetFolderStructure, Args: Args{"folderId": 0}},
		Call{Name: "folder", Function: FuncGetFolderInformation, Args: Args{"folderId": RefTo("creation", "folderId")}},
	)
	require.NoError(t, err)

	listing, _ := br.Result("listing")
	assert.True(t, listing.Success)

	folder, _ := br.Result("folder")
	assert.False(t, folder.Success)
	require.NotNil(t, folder.Err)
	assert.Equal(t, CodeDependencyFailed, folder.Err.Code)
	assert.Equal(t, TypeDependency, folder.Err.Type)

	m.AssertNotCalled(t, "RoundTrip", mock.Anything, FuncGetFolderInformation, mock.Anything)
	assert.Equal(t, uint64(2), c.NumRequests())
}

func TestSimulatedBatchMissingField(t *testing.T) {
	m := &mockTransport{}
	m.On("RoundTrip", mock.Anything, FuncCreateFolder, mock.Anything).Return(raw(`{"success": true}`), nil)
	c := NewClientWithTransport(m, WithServerChaining(false))
	br, err := c.Batch(context.Background(),
		Call{Name: "creation", Function: FuncCreateFolder},
		Call{Name: "folder", Function: FuncGetFolderInformation, Args: Args{"folderId": RefTo("creation", "folderId")}},
	)
	require.NoError(t, err)
	folder, _ := br.Result("folder")
	assert.False(t, folder.Success)
	m.AssertNotCalled(t, "RoundTrip", mock.Anything, FuncGetFolderInformation, mock.Anything)
}

func TestSimulatedBatchConnectionErrorStopsBatch(t *testing.T) {
	m := &mockTransport{}
	m.On("RoundTrip", mock.Anything, FuncCreateFolder, mock.Anything).Return(nil, stderrors.New("unreachable"))
	c := NewClientWithTransport(m, WithServerChaining(false))
	_, err := c.Batch(context.Background(),
		Call{Name: "creation", Function: FuncCreateFolder},
		Call{Name: "folder", Function: FuncGetFolderInformation, Args: Args{"folderId": RefTo("creation", "folderId")}},
	)
	require.Error(t, err)
	assert.True(t, IsConnectionError(err))
	m.AssertNotCalled(t, "RoundTrip", mock.Anything, FuncGetFolderInformation, mock.Anything)
}

func TestBatchValidation(t *testing.T) {
	tests := []struct {
		name  string
		calls []Call
	}{
		{"empty", nil},
		{"no name", []Call{{Function: FuncGetFolderInformation}}},
		{"no function", []Call{{Name: "a"}}},
		{"duplicate", []Call{
			{Name: "a", Function: FuncGetFolderInformation},
			{Name: "a", Function: FuncGetFolderInformation},
		}},
		{"forward reference", []Call{
			{Name: "a", Function: FuncGetFolderInformation, Args: Args{"folderId": RefTo("b", "folderId")}},
			{Name: "b", Function: FuncCreateFolder},
		}},
		{"self reference", []Call{
			{Name: "a", Function: FuncGetFolderInformation, Args: Args{"folderId": RefTo("a", "folderId")}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockTransport{}
			c := NewClientWithTransport(m)
			_, err := c.Batch(context.Background(), tt.calls...)
			assert.Error(t, err)
			assert.Equal(t, uint64(0), c.NumRequests())
		})
	}
}

func TestInvokeRejectsReferences(t *testing.T) {
	m := &mockTransport{}
	c := NewClientWithTransport(m)
	_, err := c.Invoke(context.Background(), FuncGetFolderInformation, Args{"folderId": RefTo("creation", "folderId")})
	assert.Error(t, err)
	assert.Equal(t, uint64(0), c.NumRequests())
}
