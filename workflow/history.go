package workflow

import (
	"context"
	"sort"
	"sync"
	"time"
)

// ActivationStatus is the status of one recorded activation.
type ActivationStatus string

const (
	ActivationRunning   ActivationStatus = "running"
	ActivationCompleted ActivationStatus = "completed"
	ActivationFailed    ActivationStatus = "failed"
)

// ActivationRecord records a single node activation.
type ActivationRecord struct {
	Node         NodeID           `json:"node"`
	BlockType    string           `json:"block_type"`
	Activation   int              `json:"activation"`
	StartTime    time.Time        `json:"start_time"`
	EndTime      time.Time        `json:"end_time"`
	Duration     time.Duration    `json:"duration"`
	Status       ActivationStatus `json:"status"`
	Result       string           `json:"result,omitempty"`
	Error        string           `json:"error,omitempty"`
	ErrorHandler NodeID           `json:"error_handler,omitempty"`
}

// RunHistory records the execution path of one run.
type RunHistory struct {
	RunID           string              `json:"run_id"`
	ParentID        string              `json:"parent_id,omitempty"`
	DefinitionID    string              `json:"definition_id"`
	StartTime       time.Time           `json:"start_time"`
	EndTime         time.Time           `json:"end_time"`
	Duration        time.Duration       `json:"duration"`
	State           RunState            `json:"state"`
	Activations     []*ActivationRecord `json:"activations"`
	BudgetExhausted bool                `json:"budget_exhausted,omitempty"`
	Error           string              `json:"error,omitempty"`
	mu              sync.RWMutex
}

// Records returns a copy of the activation records in activation order.
func (h *RunHistory) Records() []ActivationRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]ActivationRecord, len(h.Activations))
	for i, rec := range h.Activations {
		out[i] = *rec
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Activation < out[j].Activation })
	return out
}

// Path returns the nodes in activation order.
func (h *RunHistory) Path() []NodeID {
	records := h.Records()
	path := make([]NodeID, len(records))
	for i, rec := range records {
		path[i] = rec.Node
	}
	return path
}

// Status returns the run state recorded so far.
func (h *RunHistory) Status() RunState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.State
}

// HistoryStore is an Observer that keeps an in-memory RunHistory per run,
// including child runs.
type HistoryStore struct {
	NoopObserver

	mu        sync.RWMutex
	histories map[string]*RunHistory
}

// NewHistoryStore creates an empty store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{histories: make(map[string]*RunHistory)}
}

func (s *HistoryStore) history(run *Run) *RunHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.histories[run.ID]
	if !ok {
		h = &RunHistory{
			RunID:        run.ID,
			ParentID:     run.ParentID,
			DefinitionID: run.DefinitionID,
			StartTime:    time.Now(),
			State:        RunRunning,
		}
		s.histories[run.ID] = h
	}
	return h
}

func (s *HistoryStore) OnRunStart(_ context.Context, run *Run) {
	s.history(run)
}

func (s *HistoryStore) OnRunFinish(_ context.Context, run *Run, _ *Result, err error) {
	h := s.history(run)
	h.mu.Lock()
	defer h.mu.Unlock()

	h.EndTime = time.Now()
	h.Duration = h.EndTime.Sub(h.StartTime)
	if err != nil {
		h.State = RunFailed
		h.Error = err.Error()
	} else {
		h.State = RunCompleted
	}
}

func (s *HistoryStore) OnNodeStart(_ context.Context, run *Run, ev NodeEvent) {
	h := s.history(run)
	h.mu.Lock()
	defer h.mu.Unlock()

	h.Activations = append(h.Activations, &ActivationRecord{
		Node:       ev.Node,
		BlockType:  ev.BlockType,
		Activation: ev.Activation,
		StartTime:  time.Now(),
		Status:     ActivationRunning,
	})
}

func (s *HistoryStore) OnNodeFinish(_ context.Context, run *Run, ev NodeEvent) {
	h := s.history(run)
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := len(h.Activations) - 1; i >= 0; i-- {
		rec := h.Activations[i]
		if rec.Activation != ev.Activation || rec.Node != ev.Node {
			continue
		}
		rec.EndTime = time.Now()
		rec.Duration = ev.Duration
		if ev.Err != nil {
			rec.Status = ActivationFailed
			rec.Error = ev.Err.Error()
			rec.ErrorHandler = ev.ErrorHandler
		} else {
			rec.Status = ActivationCompleted
			rec.Result = ev.Result.String()
		}
		return
	}
}

func (s *HistoryStore) OnBudgetExhausted(_ context.Context, run *Run, _ int) {
	h := s.history(run)
	h.mu.Lock()
	h.BudgetExhausted = true
	h.mu.Unlock()
}

// Get returns the history of a run.
func (s *HistoryStore) Get(runID string) (*RunHistory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.histories[runID]
	return h, ok
}

// ListByDefinition returns all runs of a definition, oldest first.
func (s *HistoryStore) ListByDefinition(definitionID string) []*RunHistory {
	return s.filter(func(h *RunHistory) bool { return h.DefinitionID == definitionID })
}

// ListByParent returns the child runs spawned by a run.
func (s *HistoryStore) ListByParent(parentID string) []*RunHistory {
	return s.filter(func(h *RunHistory) bool { return h.ParentID == parentID })
}

// ListByState returns runs in the given state.
func (s *HistoryStore) ListByState(state RunState) []*RunHistory {
	return s.filter(func(h *RunHistory) bool { return h.Status() == state })
}

func (s *HistoryStore) filter(keep func(*RunHistory) bool) []*RunHistory {
	s.mu.RLock()
	var result []*RunHistory
	for _, h := range s.histories {
		if keep(h) {
			result = append(result, h)
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result
}
