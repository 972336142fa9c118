package workflow

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/blockflow/types"
)

// Builder provides a fluent API for assembling workflow definitions.
type Builder struct {
	def    *Definition
	err    error
	logger *zap.Logger
}

// NewBuilder creates a builder for a definition with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{
		def: &Definition{
			ID:    uuid.NewString(),
			Name:  name,
			Nodes: make(map[NodeID]NodeDef),
		},
		logger: zap.NewNop(),
	}
}

// WithID overrides the generated definition id.
func (b *Builder) WithID(id string) *Builder {
	b.def.ID = id
	return b
}

// WithLogger sets a custom logger
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	if logger != nil {
		b.logger = logger.With(zap.String("component", "workflow_builder"))
	}
	return b
}

// AddNode adds a node and returns a NodeBuilder for optional configuration.
func (b *Builder) AddNode(id NodeID, cfg BlockConfig) *NodeBuilder {
	b.addNode(id, NodeDef{Config: cfg})
	return &NodeBuilder{id: id, parent: b}
}

// AddNodeDef adds a fully specified node.
func (b *Builder) AddNodeDef(id NodeID, node NodeDef) *Builder {
	b.addNode(id, node)
	return b
}

func (b *Builder) addNode(id NodeID, node NodeDef) {
	switch {
	case id == "":
		b.setErr(types.NewError(types.ErrBuild, "node id is required"))
	case b.def.HasNode(id):
		b.setErr(types.Errorf(types.ErrBuild, "duplicate node id: %s", id))
	case node.Config.BlockType() == "":
		b.setErr(types.Errorf(types.ErrEmptyTypeID, "node %s has no block type", id))
	default:
		b.def.Nodes[id] = node
	}
}

// AddEdge appends a directed edge. Edge order decides the primary sink.
func (b *Builder) AddEdge(from, to NodeID) *Builder {
	b.def.Edges = append(b.def.Edges, Edge{From: from, To: to})
	return b
}

// AddErrorEdge routes failures of from to the handler node to.
func (b *Builder) AddErrorEdge(from, to NodeID) *Builder {
	b.def.ErrorEdges = append(b.def.ErrorEdges, Edge{From: from, To: to})
	return b
}

// SetEntry sets the entry node for the workflow
func (b *Builder) SetEntry(id NodeID) *Builder {
	b.def.Entry = id
	return b
}

// Build validates references and returns the definition.
func (b *Builder) Build() (*Definition, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.def.Validate(); err != nil {
		return nil, err
	}

	if b.def.Entry == "" {
		b.logger.Warn("workflow has no entry node", zap.String("name", b.def.Name))
	} else if orphaned := b.unreachable(); len(orphaned) > 0 {
		b.logger.Warn("nodes not reachable from entry",
			zap.String("name", b.def.Name),
			zap.Any("nodes", orphaned),
		)
	}

	b.logger.Debug("workflow built",
		zap.String("name", b.def.Name),
		zap.String("id", b.def.ID),
		zap.Int("nodes", len(b.def.Nodes)),
		zap.Int("edges", len(b.def.Edges)),
		zap.String("entry", string(b.def.Entry)),
	)

	def := b.def
	b.def = cloneShallow(def)
	return def, nil
}

// MustBuild is like Build but panics on error. Intended for tests and examples.
func (b *Builder) MustBuild() *Definition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

func (b *Builder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// unreachable lists nodes that neither edges nor error edges reach from entry.
func (b *Builder) unreachable() []NodeID {
	reachable := NewNodeSet()
	var mark func(NodeID)
	mark = func(id NodeID) {
		if reachable.Has(id) {
			return
		}
		reachable.Add(id)
		for _, next := range Successors(b.def, id) {
			mark(next)
		}
		for _, e := range b.def.ErrorEdges {
			if e.From == id {
				mark(e.To)
			}
		}
	}
	mark(b.def.Entry)

	var orphaned []NodeID
	for _, id := range b.def.NodeIDs() {
		if !reachable.Has(id) {
			orphaned = append(orphaned, id)
		}
	}
	return orphaned
}

// cloneShallow copies the containers so later builder calls do not mutate a
// definition that was already handed out.
func cloneShallow(def *Definition) *Definition {
	c := *def
	c.Nodes = make(map[NodeID]NodeDef, len(def.Nodes))
	for id, n := range def.Nodes {
		c.Nodes[id] = n
	}
	c.Edges = append([]Edge(nil), def.Edges...)
	c.ErrorEdges = append([]Edge(nil), def.ErrorEdges...)
	return &c
}

// NodeBuilder configures a single node.
type NodeBuilder struct {
	id     NodeID
	parent *Builder
}

// WithInput sets a literal input for the node.
func (nb *NodeBuilder) WithInput(out types.BlockOutput) *NodeBuilder {
	nb.update(func(n *NodeDef) { n.Input = &out })
	return nb
}

// WithInputFrom binds the node's input to the given source nodes.
func (nb *NodeBuilder) WithInputFrom(sources ...NodeID) *NodeBuilder {
	nb.update(func(n *NodeDef) { n.InputFrom = append([]NodeID(nil), sources...) })
	return nb
}

// Done returns to the parent builder.
func (nb *NodeBuilder) Done() *Builder {
	return nb.parent
}

func (nb *NodeBuilder) update(fn func(*NodeDef)) {
	n, ok := nb.parent.def.Nodes[nb.id]
	if !ok {
		return
	}
	fn(&n)
	nb.parent.def.Nodes[nb.id] = n
}
