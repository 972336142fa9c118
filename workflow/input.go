package workflow

import (
	"github.com/BaSui01/blockflow/types"
)

// values holds the last value each node produced. A node that returned
// Multiple keeps its outputs positionally so each outgoing edge can pick its
// own element.
type values struct {
	def      *Definition
	once     map[NodeID]types.BlockOutput
	multiple map[NodeID][]types.BlockOutput
}

func newValues(def *Definition) *values {
	return &values{
		def:      def,
		once:     make(map[NodeID]types.BlockOutput),
		multiple: make(map[NodeID][]types.BlockOutput),
	}
}

func (v *values) setOnce(id NodeID, out types.BlockOutput) {
	delete(v.multiple, id)
	v.once[id] = out
}

func (v *values) setMultiple(id NodeID, outs []types.BlockOutput) {
	delete(v.once, id)
	v.multiple[id] = outs
}

func (v *values) has(id NodeID) bool {
	if _, ok := v.once[id]; ok {
		return true
	}
	_, ok := v.multiple[id]
	return ok
}

// alongEdge returns the value edge i carries. For a Multiple producer the Nth
// outgoing edge of the producer receives the Nth output; edges beyond the
// outputs receive Empty and surplus outputs are dropped.
func (v *values) alongEdge(i int) types.BlockOutput {
	from := v.def.Edges[i].From
	if outs, ok := v.multiple[from]; ok {
		pos := 0
		for j := 0; j < i; j++ {
			if v.def.Edges[j].From == from {
				pos++
			}
		}
		if pos < len(outs) {
			return outs[pos]
		}
		return types.EmptyOutput()
	}
	if out, ok := v.once[from]; ok {
		return out
	}
	return types.EmptyOutput()
}

// towards returns what src hands to dst: the value of the first edge src->dst
// when one exists, otherwise src's whole value.
func (v *values) towards(src, dst NodeID) (types.BlockOutput, bool) {
	if !v.has(src) {
		return types.BlockOutput{}, false
	}
	for i, e := range v.def.Edges {
		if e.From == src && e.To == dst {
			return v.alongEdge(i), true
		}
	}
	return v.whole(src)
}

// whole returns a node's value as a single output. Multiple outputs collapse
// into a Json array.
func (v *values) whole(id NodeID) (types.BlockOutput, bool) {
	if out, ok := v.once[id]; ok {
		return out, true
	}
	if outs, ok := v.multiple[id]; ok {
		items := make([]any, len(outs))
		for i, o := range outs {
			items[i] = o.JSONValue()
		}
		return types.JSONOutput(items), true
	}
	return types.BlockOutput{}, false
}

// resolveInput decides what a node receives, in order of precedence:
// a routed upstream error, a forced input binding, the seed of the entry
// node's first activation, the single predecessor's value, a fan-in Multi in
// predecessor edge order, the node's literal input, and finally Empty.
func (s *scheduler) resolveInput(id NodeID) (types.BlockInput, error) {
	if queue := s.errorInputs[id]; len(queue) > 0 {
		return types.ErrorInput(queue[0]), nil
	}

	node := s.def.Nodes[id]

	if len(node.InputFrom) > 0 {
		outs := make([]types.BlockOutput, 0, len(node.InputFrom))
		for _, src := range node.InputFrom {
			out, ok := s.values.towards(src, id)
			if !ok {
				return types.BlockInput{}, types.Errorf(types.ErrInputMissing, "bound input %s has not produced a value", src).WithNode(string(id))
			}
			outs = append(outs, out)
		}
		if len(outs) == 1 {
			return types.InputOf(outs[0]), nil
		}
		return types.MultiInput(outs...), nil
	}

	if id == s.def.Entry && !s.entrySeeded {
		s.entrySeeded = true
		switch {
		case s.opts.Input != nil:
			return types.InputOf(*s.opts.Input), nil
		case node.Input != nil:
			return types.InputOf(*node.Input), nil
		default:
			return types.EmptyInput(), nil
		}
	}

	var incoming []int
	for i, e := range s.def.Edges {
		if e.To == id {
			incoming = append(incoming, i)
		}
	}

	switch len(incoming) {
	case 0:
		if node.Input != nil {
			return types.InputOf(*node.Input), nil
		}
		return types.EmptyInput(), nil
	case 1:
		return types.InputOf(s.values.alongEdge(incoming[0])), nil
	default:
		outs := make([]types.BlockOutput, len(incoming))
		for i, edge := range incoming {
			outs[i] = s.values.alongEdge(edge)
		}
		return types.MultiInput(outs...), nil
	}
}
