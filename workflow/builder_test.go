package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/blockflow/types"
)

func TestBuilder_Build(t *testing.T) {
	def, err := NewBuilder("pipeline").
		WithID("wf-1").
		WithLogger(zaptest.NewLogger(t)).
		AddNode("read", cfg("file_read")).WithInput(types.StringOutput("a.txt")).Done().
		AddNode("shape", cfg("custom_transform")).Done().
		AddNode("fallback", cfg("echo")).Done().
		AddEdge("read", "shape").
		AddErrorEdge("read", "fallback").
		SetEntry("read").
		Build()

	require.NoError(t, err)
	assert.Equal(t, "wf-1", def.ID)
	assert.Equal(t, "pipeline", def.Name)
	assert.Equal(t, NodeID("read"), def.Entry)
	assert.Equal(t, []Edge{{From: "read", To: "shape"}}, def.Edges)
	assert.Equal(t, []Edge{{From: "read", To: "fallback"}}, def.ErrorEdges)
	assert.Equal(t, []NodeID{"fallback", "read", "shape"}, def.NodeIDs())

	read, ok := def.Node("read")
	require.True(t, ok)
	require.NotNil(t, read.Input)
	assert.Equal(t, types.StringOutput("a.txt"), *read.Input)

	handler, ok := def.ErrorHandler("read")
	assert.True(t, ok)
	assert.Equal(t, NodeID("fallback"), handler)
}

func TestBuilder_Errors(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*Definition, error)
		code  types.ErrorCode
	}{
		{
			name: "edge to unknown node",
			build: func() (*Definition, error) {
				return NewBuilder("x").AddNode("a", cfg("echo")).Done().AddEdge("a", "missing").Build()
			},
			code: types.ErrUnknownNode,
		},
		{
			name: "error edge from unknown node",
			build: func() (*Definition, error) {
				return NewBuilder("x").AddNode("a", cfg("echo")).Done().AddErrorEdge("missing", "a").Build()
			},
			code: types.ErrUnknownNode,
		},
		{
			name: "unknown entry",
			build: func() (*Definition, error) {
				return NewBuilder("x").AddNode("a", cfg("echo")).Done().SetEntry("ghost").Build()
			},
			code: types.ErrUnknownNode,
		},
		{
			name: "empty type id",
			build: func() (*Definition, error) {
				return NewBuilder("x").AddNode("a", CustomConfig("", nil)).Done().Build()
			},
			code: types.ErrEmptyTypeID,
		},
		{
			name: "duplicate node",
			build: func() (*Definition, error) {
				return NewBuilder("x").AddNode("a", cfg("echo")).Done().AddNode("a", cfg("echo")).Done().Build()
			},
			code: types.ErrBuild,
		},
		{
			name: "input bound to unknown node",
			build: func() (*Definition, error) {
				return NewBuilder("x").AddNode("a", cfg("echo")).WithInputFrom("ghost").Done().Build()
			},
			code: types.ErrUnknownNode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := tt.build()
			require.Error(t, err)
			assert.Nil(t, def)
			assert.Equal(t, tt.code, types.GetErrorCode(err))
			assert.True(t, types.IsBuildError(err))
		})
	}
}

func TestBuilder_InvalidChildWorkflow(t *testing.T) {
	child := &Definition{
		ID:    "child",
		Nodes: map[NodeID]NodeDef{"a": {Config: cfg("echo")}},
		Edges: []Edge{{From: "a", To: "nope"}},
	}

	_, err := NewBuilder("parent").AddNode("sub", NewChildWorkflow(child)).Done().Build()
	require.Error(t, err)
	assert.Equal(t, types.ErrBuild, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), "nope")
}

func TestBuilder_BuiltDefinitionIsNotMutatedLater(t *testing.T) {
	b := NewBuilder("x").AddNode("a", cfg("echo")).Done().SetEntry("a")
	first := b.MustBuild()

	b.AddNode("b", cfg("echo")).Done().AddEdge("a", "b")
	second := b.MustBuild()

	assert.Len(t, first.Nodes, 1)
	assert.Empty(t, first.Edges)
	assert.Len(t, second.Nodes, 2)
	assert.Len(t, second.Edges, 1)
}

func TestBuilder_MustBuildPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewBuilder("x").AddEdge("a", "b").MustBuild()
	})
}
