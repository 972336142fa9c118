package workflow

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/blockflow/types"
)

// ---------------------------------------------------------------------------
// Test blocks
// ---------------------------------------------------------------------------

// passBlock returns its single input unchanged, and a Json array for Multi.
var passBlock = types.BlockFunc(func(_ context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}
	if out, ok := in.Output(); ok {
		return types.Once(out), nil
	}
	return types.Once(collapse(in)), nil
})

func constBlock(out types.BlockOutput) types.Block {
	return types.BlockFunc(func(_ context.Context, in types.BlockInput) (types.ExecutionResult, error) {
		if err := types.ErrorFromInput(in); err != nil {
			return types.ExecutionResult{}, err
		}
		return types.Once(out), nil
	})
}

func failBlock(msg string) types.Block {
	return types.BlockFunc(func(context.Context, types.BlockInput) (types.ExecutionResult, error) {
		return types.ExecutionResult{}, types.NewError(types.ErrIO, msg)
	})
}

// recordingBlock remembers every input it was given.
type recordingBlock struct {
	mu     sync.Mutex
	inputs []types.BlockInput
	result func(in types.BlockInput) (types.ExecutionResult, error)
}

func (b *recordingBlock) Execute(_ context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	b.mu.Lock()
	b.inputs = append(b.inputs, in)
	b.mu.Unlock()
	if b.result != nil {
		return b.result(in)
	}
	out, ok := in.Output()
	if !ok {
		out = collapse(in)
	}
	return types.Once(out), nil
}

func (b *recordingBlock) Inputs() []types.BlockInput {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]types.BlockInput(nil), b.inputs...)
}

// ---------------------------------------------------------------------------
// Registry / definition helpers
// ---------------------------------------------------------------------------

// newTestRegistry registers each block under its map key.
func newTestRegistry(t *testing.T, blocks map[string]types.Block) *Registry {
	t.Helper()
	reg := NewRegistry(zaptest.NewLogger(t))
	for typeID, block := range blocks {
		block := block
		require.NoError(t, reg.Register(typeID, func(BlockConfig) (types.Block, error) {
			return block, nil
		}))
	}
	return reg
}

func newTestExecutor(t *testing.T, blocks map[string]types.Block, opts ...ExecutorOption) *Executor {
	t.Helper()
	return NewExecutor(newTestRegistry(t, blocks), zaptest.NewLogger(t), opts...)
}

func cfg(typeID string) BlockConfig {
	return CustomConfig(typeID, nil)
}

// chain builds a linear definition over ids, each node using the block type
// of the same name.
func chain(t *testing.T, ids ...NodeID) *Definition {
	t.Helper()
	b := NewBuilder("chain")
	for _, id := range ids {
		b.AddNode(id, cfg(string(id)))
	}
	for i := 1; i < len(ids); i++ {
		b.AddEdge(ids[i-1], ids[i])
	}
	b.SetEntry(ids[0])
	def, err := b.Build()
	require.NoError(t, err)
	return def
}
