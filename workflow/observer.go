package workflow

import (
	"context"
	"time"

	"github.com/BaSui01/blockflow/types"
)

// NodeEvent describes one node activation.
type NodeEvent struct {
	RunID        string
	DefinitionID string
	Node         NodeID
	BlockType    string
	// Activation is the 1-based activation counter within the run.
	Activation int
	// Result is set on finish for successful activations.
	Result types.ResultKind
	// Duration and Err are set on finish.
	Duration time.Duration
	Err      error
	// ErrorHandler is the node the failure was routed to, if any.
	ErrorHandler NodeID
}

// Observer receives structured events from the executor.
//
// Implementations must be safe for concurrent use: nodes of one frontier and
// nested child runs report from different goroutines. They should also be
// fast; heavy work belongs on the observer's own goroutine.
type Observer interface {
	// OnRunStart is called once the run has entered Running.
	OnRunStart(ctx context.Context, run *Run)
	// OnRunFinish is called after the run reached a terminal state.
	OnRunFinish(ctx context.Context, run *Run, result *Result, err error)
	// OnNodeStart is called before a node is activated.
	OnNodeStart(ctx context.Context, run *Run, ev NodeEvent)
	// OnNodeFinish is called after an activation, for successes and failures.
	OnNodeFinish(ctx context.Context, run *Run, ev NodeEvent)
	// OnBudgetExhausted is called when the iteration budget stops a run.
	OnBudgetExhausted(ctx context.Context, run *Run, activations int)
}

// NoopObserver is an Observer that does nothing.
type NoopObserver struct{}

func (NoopObserver) OnRunStart(context.Context, *Run)                  {}
func (NoopObserver) OnRunFinish(context.Context, *Run, *Result, error) {}
func (NoopObserver) OnNodeStart(context.Context, *Run, NodeEvent)      {}
func (NoopObserver) OnNodeFinish(context.Context, *Run, NodeEvent)     {}
func (NoopObserver) OnBudgetExhausted(context.Context, *Run, int)      {}

// MultiObserver fans events out to several observers in order.
type MultiObserver struct {
	observers []Observer
}

// NewMultiObserver forwards events to each non-nil observer in obs.
func NewMultiObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	switch len(filtered) {
	case 0:
		return NoopObserver{}
	case 1:
		return filtered[0]
	}
	return &MultiObserver{observers: filtered}
}

func (m *MultiObserver) OnRunStart(ctx context.Context, run *Run) {
	for _, o := range m.observers {
		o.OnRunStart(ctx, run)
	}
}

func (m *MultiObserver) OnRunFinish(ctx context.Context, run *Run, result *Result, err error) {
	for _, o := range m.observers {
		o.OnRunFinish(ctx, run, result, err)
	}
}

func (m *MultiObserver) OnNodeStart(ctx context.Context, run *Run, ev NodeEvent) {
	for _, o := range m.observers {
		o.OnNodeStart(ctx, run, ev)
	}
}

func (m *MultiObserver) OnNodeFinish(ctx context.Context, run *Run, ev NodeEvent) {
	for _, o := range m.observers {
		o.OnNodeFinish(ctx, run, ev)
	}
}

func (m *MultiObserver) OnBudgetExhausted(ctx context.Context, run *Run, activations int) {
	for _, o := range m.observers {
		o.OnBudgetExhausted(ctx, run, activations)
	}
}
