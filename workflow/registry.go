package workflow

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/blockflow/types"
)

// Factory builds a block from its configuration.
type Factory func(cfg BlockConfig) (types.Block, error)

// Registry maps block type ids to factories. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	logger    *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		factories: make(map[string]Factory),
		logger:    logger.With(zap.String("component", "block_registry")),
	}
}

// Register stores factory under typeID. A later registration for the same id
// replaces the earlier one.
func (r *Registry) Register(typeID string, factory Factory) error {
	if typeID == "" {
		return types.NewError(types.ErrEmptyTypeID, "block type id must not be empty")
	}
	if factory == nil {
		return types.Errorf(types.ErrBuild, "factory for %s is nil", typeID)
	}

	r.mu.Lock()
	_, replaced := r.factories[typeID]
	r.factories[typeID] = factory
	r.mu.Unlock()

	if replaced {
		r.logger.Debug("block factory replaced", zap.String("type", typeID))
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(typeID string, factory Factory) {
	if err := r.Register(typeID, factory); err != nil {
		panic(err)
	}
}

// Get builds the block for cfg.
func (r *Registry) Get(cfg BlockConfig) (types.Block, error) {
	typeID := cfg.BlockType()
	if typeID == "" {
		return nil, types.NewError(types.ErrEmptyTypeID, "block config has no type id")
	}
	if typeID == ChildWorkflowType {
		return nil, types.NewError(types.ErrBuild, "child workflows are executed by the runtime, not the registry")
	}

	r.mu.RLock()
	factory, ok := r.factories[typeID]
	r.mu.RUnlock()
	if !ok {
		return nil, types.Errorf(types.ErrUnknownBlockType, "unknown block type: %s", typeID)
	}

	block, err := factory(cfg)
	if err != nil {
		return nil, types.Errorf(types.ErrBuild, "build %s block", typeID).WithCause(err)
	}
	if block == nil {
		return nil, types.Errorf(types.ErrBuild, "factory for %s returned nil block", typeID)
	}
	return block, nil
}

// Has reports whether typeID is registered.
func (r *Registry) Has(typeID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[typeID]
	return ok
}

// Types returns the registered type ids, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}
