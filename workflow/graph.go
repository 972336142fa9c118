package workflow

import "errors"

// ErrCycleDetected is returned by TopoOrder when the graph contains a cycle.
// Cycles are legal for execution; callers needing a strict topological pass
// treat it as a reportable condition.
var ErrCycleDetected = errors.New("cycle detected")

// NodeSet is a set of node ids.
type NodeSet map[NodeID]struct{}

// NewNodeSet returns a set containing ids.
func NewNodeSet(ids ...NodeID) NodeSet {
	s := make(NodeSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts id.
func (s NodeSet) Add(id NodeID) { s[id] = struct{}{} }

// Remove deletes id.
func (s NodeSet) Remove(id NodeID) { delete(s, id) }

// Has reports whether id is in the set.
func (s NodeSet) Has(id NodeID) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in lexicographic order.
func (s NodeSet) Sorted() []NodeID {
	ids := make([]NodeID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sortNodeIDs(ids)
	return ids
}

// Clone returns an independent copy.
func (s NodeSet) Clone() NodeSet {
	c := make(NodeSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// Successors returns the targets of id's outgoing edges in edge order.
func Successors(def *Definition, id NodeID) []NodeID {
	var out []NodeID
	for _, e := range def.Edges {
		if e.From == id {
			out = append(out, e.To)
		}
	}
	return out
}

// Predecessors returns the sources of id's incoming edges in edge order.
func Predecessors(def *Definition, id NodeID) []NodeID {
	var out []NodeID
	for _, e := range def.Edges {
		if e.To == id {
			out = append(out, e.From)
		}
	}
	return out
}

// Sinks returns the nodes with no outgoing edges, sorted.
func Sinks(def *Definition) []NodeID {
	hasOut := make(NodeSet, len(def.Nodes))
	for _, e := range def.Edges {
		hasOut.Add(e.From)
	}
	var sinks []NodeID
	for id := range def.Nodes {
		if !hasOut.Has(id) {
			sinks = append(sinks, id)
		}
	}
	sortNodeIDs(sinks)
	return sinks
}

// PrimarySink picks the sink whose output a run reports. With several sinks
// the destination of the last edge wins when it is a sink, otherwise the
// lexicographically smallest sink. It returns false when there is no sink.
func PrimarySink(def *Definition) (NodeID, bool) {
	sinks := Sinks(def)
	switch len(sinks) {
	case 0:
		return "", false
	case 1:
		return sinks[0], true
	}
	if n := len(def.Edges); n > 0 {
		last := def.Edges[n-1].To
		for _, s := range sinks {
			if s == last {
				return last, true
			}
		}
	}
	return sinks[0], true
}

// TopoOrder returns the nodes in topological order using Kahn's algorithm.
// Ties are broken lexicographically so the result is deterministic.
func TopoOrder(def *Definition) ([]NodeID, error) {
	inDegree := make(map[NodeID]int, len(def.Nodes))
	for id := range def.Nodes {
		inDegree[id] = 0
	}
	for _, e := range def.Edges {
		if def.HasNode(e.From) && def.HasNode(e.To) {
			inDegree[e.To]++
		}
	}

	var queue []NodeID
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sortNodeIDs(queue)

	order := make([]NodeID, 0, len(def.Nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		for _, next := range Successors(def, id) {
			if _, ok := inDegree[next]; !ok {
				continue
			}
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
		sortNodeIDs(queue)
	}

	if len(order) < len(def.Nodes) {
		return order, ErrCycleDetected
	}
	return order, nil
}

// HasCycle reports whether the definition contains a cycle.
func HasCycle(def *Definition) bool {
	_, err := TopoOrder(def)
	return errors.Is(err, ErrCycleDetected)
}

// Ready computes the wavefront. With nothing completed only the entry node is
// ready (when it exists). Otherwise a node is ready when it is not completed,
// has at least one predecessor, and every predecessor is completed. The result
// is sorted.
func Ready(def *Definition, completed NodeSet) []NodeID {
	if len(completed) == 0 {
		if def.Entry != "" && def.HasNode(def.Entry) {
			return []NodeID{def.Entry}
		}
		return []NodeID{}
	}

	ready := []NodeID{}
	for _, id := range def.NodeIDs() {
		if completed.Has(id) {
			continue
		}
		preds := Predecessors(def, id)
		if len(preds) == 0 {
			continue
		}
		all := true
		for _, p := range preds {
			if !completed.Has(p) {
				all = false
				break
			}
		}
		if all {
			ready = append(ready, id)
		}
	}
	return ready
}

// Reachable returns every node reachable from start, start included.
func Reachable(def *Definition, start NodeID) NodeSet {
	seen := NewNodeSet()
	if !def.HasNode(start) {
		return seen
	}
	stack := []NodeID{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen.Has(id) {
			continue
		}
		seen.Add(id)
		stack = append(stack, Successors(def, id)...)
	}
	return seen
}
