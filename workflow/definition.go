package workflow

import (
	"sort"

	"github.com/BaSui01/blockflow/types"
)

// NodeID identifies a node within a single definition.
type NodeID string

// Edge is a directed link from one node's output to another node's input.
type Edge struct {
	From NodeID `json:"from" yaml:"from"`
	To   NodeID `json:"to" yaml:"to"`
}

// NodeDef places a configured block on the graph.
//
// Input is a literal input used when the node has nothing upstream to resolve
// from. InputFrom forces the node's input to come from the named nodes instead
// of its graph predecessors.
type NodeDef struct {
	Config    BlockConfig        `json:"config" yaml:"config"`
	Input     *types.BlockOutput `json:"input,omitempty" yaml:"input,omitempty"`
	InputFrom []NodeID           `json:"input_from,omitempty" yaml:"input_from,omitempty"`
}

// Definition is a workflow graph: nodes, ordered edges, ordered error edges
// and an optional entry node. Cycles are legal.
type Definition struct {
	ID         string             `json:"id" yaml:"id"`
	Name       string             `json:"name,omitempty" yaml:"name,omitempty"`
	Nodes      map[NodeID]NodeDef `json:"nodes" yaml:"nodes"`
	Edges      []Edge             `json:"edges" yaml:"edges"`
	ErrorEdges []Edge             `json:"error_edges,omitempty" yaml:"error_edges,omitempty"`
	Entry      NodeID             `json:"entry,omitempty" yaml:"entry,omitempty"`
}

// HasNode reports whether id is a node of the definition.
func (d *Definition) HasNode(id NodeID) bool {
	if d == nil {
		return false
	}
	_, ok := d.Nodes[id]
	return ok
}

// Node returns the node definition for id.
func (d *Definition) Node(id NodeID) (NodeDef, bool) {
	if d == nil {
		return NodeDef{}, false
	}
	n, ok := d.Nodes[id]
	return n, ok
}

// NodeIDs returns all node ids in lexicographic order.
func (d *Definition) NodeIDs() []NodeID {
	if d == nil {
		return nil
	}
	ids := make([]NodeID, 0, len(d.Nodes))
	for id := range d.Nodes {
		ids = append(ids, id)
	}
	sortNodeIDs(ids)
	return ids
}

// ErrorHandler returns the first error-edge target registered for id.
func (d *Definition) ErrorHandler(id NodeID) (NodeID, bool) {
	if d == nil {
		return "", false
	}
	for _, e := range d.ErrorEdges {
		if e.From == id {
			return e.To, true
		}
	}
	return "", false
}

// Validate checks that every edge, error edge, input binding and the entry
// reference existing nodes. Child definitions are validated recursively.
func (d *Definition) Validate() error {
	if d == nil {
		return types.NewError(types.ErrBuild, "definition is nil")
	}
	check := func(kind string, e Edge) error {
		if !d.HasNode(e.From) {
			return types.Errorf(types.ErrUnknownNode, "%s references non-existent source node: %s", kind, e.From)
		}
		if !d.HasNode(e.To) {
			return types.Errorf(types.ErrUnknownNode, "%s references non-existent target node: %s", kind, e.To)
		}
		return nil
	}
	for _, e := range d.Edges {
		if err := check("edge", e); err != nil {
			return err
		}
	}
	for _, e := range d.ErrorEdges {
		if err := check("error edge", e); err != nil {
			return err
		}
	}
	if d.Entry != "" && !d.HasNode(d.Entry) {
		return types.Errorf(types.ErrUnknownNode, "entry node does not exist: %s", d.Entry)
	}
	for _, id := range d.NodeIDs() {
		node := d.Nodes[id]
		if node.Config.BlockType() == "" {
			return types.Errorf(types.ErrEmptyTypeID, "node %s has no block type", id)
		}
		for _, src := range node.InputFrom {
			if !d.HasNode(src) {
				return types.Errorf(types.ErrUnknownNode, "node %s binds input from non-existent node: %s", id, src)
			}
		}
		if child := node.Config.ChildWorkflow(); child != nil {
			if err := child.Definition.Validate(); err != nil {
				return types.Errorf(types.ErrBuild, "child workflow %s is invalid", id).WithCause(err)
			}
		}
	}
	return nil
}

func sortNodeIDs(ids []NodeID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
