package workflow

import (
	"time"

	"github.com/BaSui01/blockflow/types"
)

// DefaultIterationBudget caps node activations per run when the caller does
// not choose a budget.
const DefaultIterationBudget = 10_000

// RunOptions tune a single execution.
type RunOptions struct {
	// IterationBudget bounds total node activations. Zero or negative means
	// DefaultIterationBudget.
	IterationBudget int
	// TickTimeout bounds each read from a recurring block's channel. Zero
	// waits indefinitely.
	TickTimeout time.Duration
	// MaxConcurrency limits how many frontier nodes run at once. Zero means
	// no limit.
	MaxConcurrency int
	// Input seeds the entry node's first activation.
	Input *types.BlockOutput
}

// RunOption configures RunOptions.
type RunOption func(*RunOptions)

// WithIterationBudget sets the activation budget.
func WithIterationBudget(n int) RunOption {
	return func(o *RunOptions) { o.IterationBudget = n }
}

// WithTickTimeout bounds reads from recurring channels.
func WithTickTimeout(d time.Duration) RunOption {
	return func(o *RunOptions) { o.TickTimeout = d }
}

// WithMaxConcurrency limits parallel node activations within a tick.
func WithMaxConcurrency(n int) RunOption {
	return func(o *RunOptions) { o.MaxConcurrency = n }
}

// WithInput seeds the entry node.
func WithInput(out types.BlockOutput) RunOption {
	return func(o *RunOptions) { o.Input = &out }
}

func buildRunOptions(defaults, opts []RunOption) RunOptions {
	var o RunOptions
	for _, opt := range defaults {
		opt(&o)
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.IterationBudget <= 0 {
		o.IterationBudget = DefaultIterationBudget
	}
	if o.MaxConcurrency < 0 {
		o.MaxConcurrency = 0
	}
	return o
}

// childOptions carries the tuning of a parent run into its child runs.
func (o RunOptions) childOptions(seed types.BlockOutput) []RunOption {
	return []RunOption{
		WithIterationBudget(o.IterationBudget),
		WithTickTimeout(o.TickTimeout),
		WithMaxConcurrency(o.MaxConcurrency),
		WithInput(seed),
	}
}

// Result is the outcome of a run.
type Result struct {
	RunID  string
	Output types.BlockOutput
	// Node is the node whose output was reported.
	Node NodeID
	// Activations counts node activations performed by the run.
	Activations int
	// BudgetExhausted is set when the iteration budget stopped the run.
	BudgetExhausted bool
}
