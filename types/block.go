package types

import "context"

// Block is the unit of work placed on a workflow node.
//
// Execute must treat an Error input as a short-circuit signal and normally
// return the carried error unchanged (see ErrorFromInput). Side effects are the
// implementation's own business.
type Block interface {
	Execute(ctx context.Context, input BlockInput) (ExecutionResult, error)
}

// BlockFunc adapts a plain function to the Block interface.
type BlockFunc func(ctx context.Context, input BlockInput) (ExecutionResult, error)

// Execute calls f(ctx, input).
func (f BlockFunc) Execute(ctx context.Context, input BlockInput) (ExecutionResult, error) {
	return f(ctx, input)
}
