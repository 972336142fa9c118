package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/blockflow/types"
)

// drawDAG draws a definition whose edges only point from lower to higher
// index, so it is acyclic by construction.
func drawDAG(rt *rapid.T) (*Definition, []NodeID) {
	n := rapid.IntRange(1, 12).Draw(rt, "nodes")
	ids := make([]NodeID, n)
	def := &Definition{ID: "prop", Nodes: map[NodeID]NodeDef{}, Entry: "n00"}
	for i := range ids {
		ids[i] = NodeID(fmt.Sprintf("n%02d", i))
		def.Nodes[ids[i]] = NodeDef{Config: cfg("pass")}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if rapid.Bool().Draw(rt, fmt.Sprintf("edge_%d_%d", i, j)) {
				def.Edges = append(def.Edges, Edge{From: ids[i], To: ids[j]})
			}
		}
	}
	return def, ids
}

func TestProperty_TopoOrderRespectsEdges(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		def, ids := drawDAG(rt)

		order, err := TopoOrder(def)
		if err != nil {
			rt.Fatalf("acyclic graph reported %v", err)
		}
		if len(order) != len(ids) {
			rt.Fatalf("order has %d nodes, want %d", len(order), len(ids))
		}

		pos := make(map[NodeID]int, len(order))
		for i, id := range order {
			pos[id] = i
		}
		for _, id := range ids {
			for _, p := range Predecessors(def, id) {
				if pos[p] >= pos[id] {
					rt.Fatalf("%s emitted before its predecessor %s", id, p)
				}
			}
		}
	})
}

func TestProperty_BackEdgeIsDetected(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		def, ids := drawDAG(rt)
		if len(ids) < 2 {
			ids = append(ids, "tail")
			def.Nodes["tail"] = NodeDef{Config: cfg("pass")}
		}
		i := rapid.IntRange(0, len(ids)-2).Draw(rt, "from")
		j := rapid.IntRange(i+1, len(ids)-1).Draw(rt, "to")
		def.Edges = append(def.Edges, Edge{From: ids[i], To: ids[j]}, Edge{From: ids[j], To: ids[i]})

		if _, err := TopoOrder(def); !errors.Is(err, ErrCycleDetected) {
			rt.Fatalf("expected cycle, got %v", err)
		}
	})
}

func TestProperty_ReadyOnEmptySet(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		def, ids := drawDAG(rt)
		pick := rapid.IntRange(-1, len(ids)-1).Draw(rt, "entry")
		switch pick {
		case -1:
			def.Entry = "ghost"
			if got := Ready(def, NewNodeSet()); len(got) != 0 {
				rt.Fatalf("unregistered entry yielded %v", got)
			}
		default:
			def.Entry = ids[pick]
			got := Ready(def, NewNodeSet())
			if len(got) != 1 || got[0] != def.Entry {
				rt.Fatalf("Ready(empty) = %v, want [%s]", got, def.Entry)
			}
		}
	})
}

func TestProperty_CyclicRunsStopWithinBudget(t *testing.T) {
	exec := newTestExecutor(t, map[string]types.Block{"pass": passBlock})

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(2, 6).Draw(rt, "ring")
		budget := rapid.IntRange(1, 60).Draw(rt, "budget")

		b := NewBuilder("ring")
		for i := 0; i < n; i++ {
			b.AddNode(NodeID(fmt.Sprintf("r%d", i)), cfg("pass"))
		}
		b.AddNode("out", cfg("pass"))
		for i := 0; i < n; i++ {
			b.AddEdge(NodeID(fmt.Sprintf("r%d", i)), NodeID(fmt.Sprintf("r%d", (i+1)%n)))
		}
		b.AddEdge("r0", "out")
		b.SetEntry("r0")
		def, err := b.Build()
		require.NoError(rt, err)

		res, err := exec.Run(context.Background(), def,
			WithIterationBudget(budget),
			WithInput(types.StringOutput("tick")),
		)
		if err != nil {
			rt.Fatalf("run failed: %v", err)
		}
		if res.Activations > budget {
			rt.Fatalf("%d activations exceed budget %d", res.Activations, budget)
		}
		if !res.BudgetExhausted {
			rt.Fatalf("ring should only stop on budget")
		}
	})
}
