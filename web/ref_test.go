package web

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		in   string
		want Ref
		ok   bool
	}{
		{"$creation.folderId", Ref{Call: "creation", Field: "folderId"}, true},
		{"$folder.folder.tree", Ref{Call: "folder", Field: "folder.tree"}, true},
		{"creation.folderId", Ref{}, false},
		{"$creation", Ref{}, false},
		{"$.folderId", Ref{}, false},
		{"$creation.", Ref{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRef(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestRefMarshalsToWireForm(t *testing.T) {
	js, err := json.Marshal(Args{"folderId": RefTo("folder", "folder", "parentId")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"folderId": "$folder.folder.parentId"}`, string(js))
}

func TestRefsIn(t *testing.T) {
	args := Args{
		"folderId": RefTo("a", "id"),
		"nested": map[string]interface{}{
			"list": []interface{}{1, RefTo("b", "id")},
		},
		"plain": "$c.id",
	}
	refs := refsIn(args, nil)
	assert.ElementsMatch(t, []Ref{RefTo("a", "id"), RefTo("b", "id")}, refs)
}

func TestSubstitute(t *testing.T) {
	values := map[Ref]interface{}{
		RefTo("a", "id"): float64(1),
		RefTo("b", "id"): "two",
	}
	resolve := func(r Ref) (interface{}, bool) {
		v, ok := values[r]
		return v, ok
	}
	args := Args{
		"folderId": RefTo("a", "id"),
		"nested":   map[string]interface{}{"list": []interface{}{RefTo("b", "id"), 3}},
	}
	res, _, ok := substitute(args, resolve)
	require.True(t, ok)
	assert.Equal(t, Args{
		"folderId": float64(1),
		"nested":   map[string]interface{}{"list": []interface{}{"two", 3}},
	}, res)
	assert.Equal(t, RefTo("a", "id"), args["folderId"], "arguments are copied, not changed")

	_, failed, ok := substitute(Args{"x": []interface{}{RefTo("c", "id")}}, resolve)
	assert.False(t, ok)
	assert.Equal(t, RefTo("c", "id"), failed)
}
