package blocks

import (
	"context"
	"strings"

	"github.com/BaSui01/blockflow/types"
)

// =============================================================================
// custom_transform
// =============================================================================

type customTransformBlock struct{}

func newCustomTransform(CustomTransformConfig) (types.Block, error) {
	return customTransformBlock{}, nil
}

// Execute passes the input through unchanged. A fan-in becomes a JSON array.
func (customTransformBlock) Execute(_ context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}
	return types.Once(passThrough(in)), nil
}

// =============================================================================
// echo
// =============================================================================

type echoBlock struct{}

func newEcho(EchoConfig) (types.Block, error) {
	return echoBlock{}, nil
}

func (echoBlock) Execute(_ context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}
	return types.Once(types.StringOutput(in.Text())), nil
}

// =============================================================================
// merge
// =============================================================================

type mergeBlock struct {
	separator string
}

func newMerge(cfg MergeConfig) (types.Block, error) {
	sep := cfg.Separator
	if sep == "" {
		sep = "\n"
	}
	return &mergeBlock{separator: sep}, nil
}

func (b *mergeBlock) Execute(_ context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}
	items, err := itemsFrom(TypeMerge, in)
	if err != nil {
		return types.ExecutionResult{}, err
	}
	return types.Once(types.TextOutput(strings.Join(items, b.separator))), nil
}
