package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func graphDef(entry NodeID, nodes []NodeID, edges ...Edge) *Definition {
	def := &Definition{ID: "g", Nodes: map[NodeID]NodeDef{}, Edges: edges, Entry: entry}
	for _, id := range nodes {
		def.Nodes[id] = NodeDef{Config: cfg("noop")}
	}
	return def
}

func TestSuccessorsAndPredecessors_EdgeOrder(t *testing.T) {
	def := graphDef("a", []NodeID{"a", "b", "c", "d"},
		Edge{"a", "c"}, Edge{"a", "b"}, Edge{"d", "b"}, Edge{"c", "b"},
	)

	assert.Equal(t, []NodeID{"c", "b"}, Successors(def, "a"))
	assert.Equal(t, []NodeID{"a", "d", "c"}, Predecessors(def, "b"))
	assert.Empty(t, Successors(def, "b"))
	assert.Empty(t, Predecessors(def, "a"))
}

func TestSinks(t *testing.T) {
	def := graphDef("a", []NodeID{"a", "b", "c"}, Edge{"a", "c"}, Edge{"a", "b"})
	assert.Equal(t, []NodeID{"b", "c"}, Sinks(def))

	cyclic := graphDef("a", []NodeID{"a", "b"}, Edge{"a", "b"}, Edge{"b", "a"})
	assert.Empty(t, Sinks(cyclic))
}

func TestPrimarySink(t *testing.T) {
	tests := []struct {
		name   string
		def    *Definition
		want   NodeID
		wantOK bool
	}{
		{
			name:   "single sink",
			def:    graphDef("a", []NodeID{"a", "b"}, Edge{"a", "b"}),
			want:   "b",
			wantOK: true,
		},
		{
			name:   "last edge destination wins",
			def:    graphDef("a", []NodeID{"a", "b", "c"}, Edge{"a", "b"}, Edge{"a", "c"}),
			want:   "c",
			wantOK: true,
		},
		{
			name: "smallest sink when last destination has successors",
			def: graphDef("a", []NodeID{"a", "b", "c", "d"},
				Edge{"a", "d"}, Edge{"a", "c"}, Edge{"b", "a"},
			),
			want:   "c",
			wantOK: true,
		},
		{
			name:   "empty definition",
			def:    graphDef("", nil),
			wantOK: false,
		},
		{
			name:   "pure cycle",
			def:    graphDef("a", []NodeID{"a", "b"}, Edge{"a", "b"}, Edge{"b", "a"}),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PrimarySink(tt.def)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestTopoOrder_Acyclic(t *testing.T) {
	def := graphDef("a", []NodeID{"a", "b", "c", "d"},
		Edge{"a", "b"}, Edge{"a", "c"}, Edge{"b", "d"}, Edge{"c", "d"},
	)

	order, err := TopoOrder(def)
	require.NoError(t, err)
	assert.Equal(t, []NodeID{"a", "b", "c", "d"}, order)
	assert.False(t, HasCycle(def))
}

func TestTopoOrder_CycleDetected(t *testing.T) {
	def := graphDef("a", []NodeID{"a", "b", "c"},
		Edge{"a", "b"}, Edge{"b", "c"}, Edge{"c", "b"},
	)

	order, err := TopoOrder(def)
	assert.ErrorIs(t, err, ErrCycleDetected)
	assert.Equal(t, []NodeID{"a"}, order)
	assert.True(t, HasCycle(def))
}

func TestReady(t *testing.T) {
	def := graphDef("a", []NodeID{"a", "b", "c"}, Edge{"a", "b"}, Edge{"b", "c"})

	assert.Equal(t, []NodeID{"a"}, Ready(def, NewNodeSet()))
	assert.Equal(t, []NodeID{"b"}, Ready(def, NewNodeSet("a")))
	assert.Equal(t, []NodeID{"c"}, Ready(def, NewNodeSet("a", "b")))
	assert.Empty(t, Ready(def, NewNodeSet("a", "b", "c")))
}

func TestReady_NoEntry(t *testing.T) {
	def := graphDef("", []NodeID{"a", "b"}, Edge{"a", "b"})
	assert.Empty(t, Ready(def, NewNodeSet()))

	missing := graphDef("ghost", []NodeID{"a"})
	assert.Empty(t, Ready(missing, NewNodeSet()))
}

func TestReady_FanInWaitsForAllPredecessors(t *testing.T) {
	def := graphDef("s", []NodeID{"s", "p1", "p2", "join"},
		Edge{"s", "p1"}, Edge{"s", "p2"}, Edge{"p1", "join"}, Edge{"p2", "join"},
	)

	assert.Equal(t, []NodeID{"p1", "p2"}, Ready(def, NewNodeSet("s")))
	assert.Equal(t, []NodeID{"p2"}, Ready(def, NewNodeSet("s", "p1")))
	assert.Equal(t, []NodeID{"join"}, Ready(def, NewNodeSet("s", "p1", "p2")))
}

func TestReady_RootsAreNotReoffered(t *testing.T) {
	def := graphDef("a", []NodeID{"a", "b", "orphan"}, Edge{"a", "b"})
	assert.Equal(t, []NodeID{"b"}, Ready(def, NewNodeSet("a")))
}

func TestReachable(t *testing.T) {
	def := graphDef("a", []NodeID{"a", "b", "c", "d"}, Edge{"a", "b"}, Edge{"b", "a"}, Edge{"c", "d"})

	assert.Equal(t, []NodeID{"a", "b"}, Reachable(def, "a").Sorted())
	assert.Empty(t, Reachable(def, "ghost"))
}

func TestNodeSet(t *testing.T) {
	s := NewNodeSet("b", "a")
	s.Add("c")
	s.Remove("b")

	assert.True(t, s.Has("a"))
	assert.False(t, s.Has("b"))
	assert.Equal(t, []NodeID{"a", "c"}, s.Sorted())

	c := s.Clone()
	c.Add("z")
	assert.False(t, s.Has("z"))
}
