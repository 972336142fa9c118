package workflow

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BaSui01/blockflow/types"
)

// RunState is the lifecycle state of one execution attempt.
type RunState string

const (
	RunCreated   RunState = "created"
	RunRunning   RunState = "running"
	RunCompleted RunState = "completed"
	RunFailed    RunState = "failed"
	RunPaused    RunState = "paused" // reserved for suspend/resume, never entered by the executor
)

// IsTerminal reports whether no further transition is expected.
func (s RunState) IsTerminal() bool {
	return s == RunCompleted || s == RunFailed
}

// validTransitions 定义合法的状态转换
var validTransitions = map[RunState][]RunState{
	RunCreated: {RunRunning, RunFailed},
	RunRunning: {RunCompleted, RunFailed, RunPaused},
	RunPaused:  {RunRunning, RunFailed},
}

// CanTransition checks whether from -> to is a legal transition.
func CanTransition(from, to RunState) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Run records one execution of a definition. It is mutated only by the
// executor driving it; readers may observe it concurrently.
type Run struct {
	ID           string
	DefinitionID string
	ParentID     string // set on child workflow runs
	CreatedAt    time.Time

	mu         sync.RWMutex
	state      RunState
	reason     string
	completed  NodeSet
	startedAt  time.Time
	finishedAt time.Time
}

// NewRun creates a run in the Created state.
func NewRun(def *Definition) *Run {
	defID := ""
	if def != nil {
		defID = def.ID
	}
	return &Run{
		ID:           uuid.NewString(),
		DefinitionID: defID,
		CreatedAt:    time.Now(),
		state:        RunCreated,
		completed:    NewNodeSet(),
	}
}

// State returns the current state.
func (r *Run) State() RunState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Reason returns the failure reason of a Failed run.
func (r *Run) Reason() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.reason
}

// StartedAt returns when the run entered Running.
func (r *Run) StartedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.startedAt
}

// FinishedAt returns when the run reached a terminal state.
func (r *Run) FinishedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.finishedAt
}

// CompletedBlockIDs returns a snapshot of the completed set.
func (r *Run) CompletedBlockIDs() NodeSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.completed.Clone()
}

// IsCompleted reports whether id is currently in the completed set.
func (r *Run) IsCompleted(id NodeID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.completed.Has(id)
}

func (r *Run) transition(to RunState, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !CanTransition(r.state, to) {
		return types.Errorf(types.ErrInvalidRunState, "invalid run state transition: %s -> %s", r.state, to)
	}
	r.state = to
	now := time.Now()
	switch to {
	case RunRunning:
		r.startedAt = now
	case RunCompleted, RunFailed:
		r.reason = reason
		r.finishedAt = now
	}
	return nil
}

func (r *Run) start() error    { return r.transition(RunRunning, "") }
func (r *Run) complete() error { return r.transition(RunCompleted, "") }

func (r *Run) fail(err error) error {
	return r.transition(RunFailed, fmt.Sprint(err))
}

func (r *Run) markCompleted(id NodeID) {
	r.mu.Lock()
	r.completed.Add(id)
	r.mu.Unlock()
}

func (r *Run) unmarkCompleted(id NodeID) {
	r.mu.Lock()
	r.completed.Remove(id)
	r.mu.Unlock()
}
