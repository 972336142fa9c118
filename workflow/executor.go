package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/blockflow/retry"
	"github.com/BaSui01/blockflow/types"
)

// Executor drives workflow runs. One Executor may run many definitions
// concurrently; all per-run state lives in the run's scheduler.
type Executor struct {
	registry *Registry
	observer Observer
	logger   *zap.Logger
	defaults []RunOption
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithObserver attaches observers. Several observers are combined.
func WithObserver(obs ...Observer) ExecutorOption {
	return func(e *Executor) {
		e.observer = NewMultiObserver(append([]Observer{e.observer}, obs...)...)
	}
}

// WithDefaultRunOptions applies opts to every run before per-call options.
func WithDefaultRunOptions(opts ...RunOption) ExecutorOption {
	return func(e *Executor) { e.defaults = append(e.defaults, opts...) }
}

// NewExecutor creates an executor resolving blocks through registry.
func NewExecutor(registry *Registry, logger *zap.Logger, opts ...ExecutorOption) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = NewRegistry(logger)
	}
	e := &Executor{
		registry: registry,
		logger:   logger.With(zap.String("component", "workflow_executor")),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.observer == nil {
		e.observer = NoopObserver{}
	}
	return e
}

// Registry returns the registry blocks are built from.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// Run executes def with a fresh run.
func (e *Executor) Run(ctx context.Context, def *Definition, opts ...RunOption) (*Result, error) {
	return e.Execute(ctx, def, NewRun(def), opts...)
}

// Execute drives run over def until the graph drains, the iteration budget is
// spent, or the run fails. run must be in the Created state.
func (e *Executor) Execute(ctx context.Context, def *Definition, run *Run, opts ...RunOption) (*Result, error) {
	if def == nil {
		return nil, types.NewError(types.ErrBuild, "definition cannot be nil")
	}
	if run == nil {
		run = NewRun(def)
	}
	if state := run.State(); state != RunCreated {
		return nil, types.Errorf(types.ErrInvalidRunState, "run %s is %s, expected %s", run.ID, state, RunCreated)
	}

	s := &scheduler{
		executor:    e,
		def:         def,
		run:         run,
		opts:        buildRunOptions(e.defaults, opts),
		logger:      e.logger.With(zap.String("run_id", run.ID), zap.String("definition_id", def.ID)),
		values:      newValues(def),
		blocks:      make(map[NodeID]types.Block),
		streams:     make(map[NodeID]<-chan types.BlockOutput),
		errorInputs: make(map[NodeID][]string),
		failed:      NewNodeSet(),
	}

	if err := def.Validate(); err != nil {
		_ = run.fail(err)
		e.observer.OnRunFinish(ctx, run, nil, err)
		return nil, err
	}
	if err := run.start(); err != nil {
		return nil, err
	}

	e.observer.OnRunStart(ctx, run)
	s.logger.Info("starting workflow execution",
		zap.String("entry_node", string(def.Entry)),
		zap.Int("nodes", len(def.Nodes)),
		zap.Int("iteration_budget", s.opts.IterationBudget),
	)

	// Recurring producers are bound to the run.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	result, err := s.loop(runCtx)
	if err != nil {
		_ = run.fail(err)
		s.logger.Error("workflow execution failed",
			zap.Int("activations", s.activations),
			zap.Error(err),
		)
		e.observer.OnRunFinish(ctx, run, nil, err)
		return nil, err
	}

	_ = run.complete()
	s.logger.Info("workflow execution completed",
		zap.Int("activations", result.Activations),
		zap.String("output_node", string(result.Node)),
		zap.Bool("budget_exhausted", result.BudgetExhausted),
	)
	e.observer.OnRunFinish(ctx, run, result, nil)
	return result, nil
}

// =============================================================================
// Scheduler
// =============================================================================

type scheduler struct {
	executor *Executor
	def      *Definition
	run      *Run
	opts     RunOptions
	logger   *zap.Logger

	values      *values
	blocks      map[NodeID]types.Block
	streams     map[NodeID]<-chan types.BlockOutput
	errorInputs map[NodeID][]string // routed failures queued per handler
	failed      NodeSet
	entrySeeded bool
	activations int
	lastNode    NodeID
}

type taskKind int

const (
	taskExecute taskKind = iota
	taskPull
)

type task struct {
	node       NodeID
	kind       taskKind
	input      types.BlockInput
	err        error
	activation int
}

type outcome struct {
	result   types.ExecutionResult
	first    types.BlockOutput // first value of a newly opened recurring stream
	err      error
	duration time.Duration
}

func (s *scheduler) loop(ctx context.Context) (*Result, error) {
	sink, ok := PrimarySink(s.def)
	if !ok {
		return nil, types.NewError(types.ErrNoSinkNode, "workflow has no sink node")
	}
	if err := s.buildBlocks(); err != nil {
		return nil, err
	}

	frontier := Ready(s.def, NewNodeSet())
	if len(frontier) == 0 {
		if s.def.Entry != "" {
			return nil, types.Errorf(types.ErrEntryNotRegistered, "entry node not found: %s", s.def.Entry)
		}
		return nil, types.NewError(types.ErrNoEntryNode, "graph has no entry node")
	}
	pulls := false

	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, types.NewError(types.ErrCancelled, "workflow cancelled").WithCause(err)
		}

		remaining := s.opts.IterationBudget - s.activations
		if remaining <= 0 {
			return s.exhausted(ctx, sink), nil
		}
		if len(frontier) > remaining {
			frontier = frontier[:remaining]
		}

		tasks := s.prepare(frontier, pulls)
		outcomes := s.dispatch(ctx, tasks)

		if err := ctx.Err(); err != nil {
			return nil, types.NewError(types.ErrCancelled, "workflow cancelled").WithCause(err)
		}
		for i, t := range tasks {
			if err := s.apply(t, outcomes[i]); err != nil {
				return nil, err
			}
		}

		frontier, pulls = s.next()
	}

	out, node, ok := s.output(sink)
	if !ok {
		return nil, types.Errorf(types.ErrNoSinkNode, "sink %s produced no output", sink)
	}
	return &Result{
		RunID:       s.run.ID,
		Output:      out,
		Node:        node,
		Activations: s.activations,
	}, nil
}

// buildBlocks instantiates every registry-backed node before anything runs so
// unknown block types surface before side effects happen.
func (s *scheduler) buildBlocks() error {
	for _, id := range s.def.NodeIDs() {
		cfg := s.def.Nodes[id].Config
		if cfg.ChildWorkflow() != nil {
			continue
		}
		block, err := s.executor.registry.Get(cfg)
		if err != nil {
			return attributeTo(id, err)
		}
		s.blocks[id] = block
	}
	return nil
}

// prepare resolves inputs on the scheduler goroutine so workers never read
// shared state. A node whose recurring channel is already open takes its next
// value instead of being executed again, whatever re-armed it.
func (s *scheduler) prepare(frontier []NodeID, pulls bool) []task {
	tasks := make([]task, len(frontier))
	for i, id := range frontier {
		t := task{node: id, activation: s.activations + i + 1}
		if _, open := s.streams[id]; pulls || open {
			t.kind = taskPull
			if msg, ok := s.popErrorInput(id); ok {
				s.logger.Debug("recurring node already open, routed failure only triggers a pull",
					zap.String("node_id", string(id)),
					zap.String("error", msg),
				)
			}
		} else {
			t.input, t.err = s.resolveInput(id)
			s.popErrorInput(id)
		}
		tasks[i] = t
	}
	return tasks
}

// popErrorInput drops the oldest routed failure queued for a handler.
func (s *scheduler) popErrorInput(id NodeID) (string, bool) {
	queue := s.errorInputs[id]
	if len(queue) == 0 {
		return "", false
	}
	if len(queue) == 1 {
		delete(s.errorInputs, id)
	} else {
		s.errorInputs[id] = queue[1:]
	}
	return queue[0], true
}

// dispatch runs a frontier concurrently. Each worker writes only its own slot.
func (s *scheduler) dispatch(ctx context.Context, tasks []task) []outcome {
	outcomes := make([]outcome, len(tasks))

	var g errgroup.Group
	if s.opts.MaxConcurrency > 0 {
		g.SetLimit(s.opts.MaxConcurrency)
	}
	for i := range tasks {
		i := i
		g.Go(func() error {
			outcomes[i] = s.activate(ctx, tasks[i])
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (s *scheduler) activate(ctx context.Context, t task) (oc outcome) {
	cfg := s.def.Nodes[t.node].Config
	ev := NodeEvent{
		RunID:        s.run.ID,
		DefinitionID: s.def.ID,
		Node:         t.node,
		BlockType:    cfg.BlockType(),
		Activation:   t.activation,
	}
	s.executor.observer.OnNodeStart(ctx, s.run, ev)
	s.logger.Debug("executing node",
		zap.String("node_id", string(t.node)),
		zap.String("block_type", ev.BlockType),
		zap.Int("activation", t.activation),
	)

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			oc = outcome{err: types.Errorf(types.ErrBlock, "block panicked: %v", r)}
		}
		oc.duration = time.Since(start)
		ev.Duration = oc.duration
		ev.Err = oc.err
		if oc.err == nil {
			ev.Result = oc.result.Kind
		} else if handler, ok := s.def.ErrorHandler(t.node); ok && !types.IsRuntimeError(oc.err) {
			ev.ErrorHandler = handler
		}
		s.executor.observer.OnNodeFinish(ctx, s.run, ev)
	}()

	if t.err != nil {
		return outcome{err: t.err}
	}

	if t.kind == taskPull {
		v, err := s.receive(ctx, t.node, s.streams[t.node])
		return outcome{result: types.Once(v), err: err}
	}

	var (
		res types.ExecutionResult
		err error
	)
	if child := cfg.ChildWorkflow(); child != nil {
		res, err = s.runChild(ctx, t.node, child, t.input)
	} else {
		res, err = s.blocks[t.node].Execute(ctx, t.input)
	}
	if err != nil {
		return outcome{err: err}
	}

	switch res.Kind {
	case types.ResultOnce, types.ResultMultiple:
		return outcome{result: res}
	case types.ResultRecurring:
		if res.Stream == nil {
			return outcome{err: types.NewError(types.ErrChannelDisconnected, "recurring block returned no channel").WithNode(string(t.node))}
		}
		first, err := s.receive(ctx, t.node, res.Stream)
		return outcome{result: res, first: first, err: err}
	default:
		return outcome{err: types.Errorf(types.ErrBlock, "unknown result kind %s", res.Kind)}
	}
}

// receive takes one value from a recurring channel. It is the only place the
// scheduler blocks on a producer, bounded by the tick timeout.
func (s *scheduler) receive(ctx context.Context, id NodeID, stream <-chan types.BlockOutput) (types.BlockOutput, error) {
	var timeout <-chan time.Time
	if s.opts.TickTimeout > 0 {
		timer := time.NewTimer(s.opts.TickTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case v, ok := <-stream:
		if !ok {
			return types.BlockOutput{}, types.NewError(types.ErrChannelDisconnected, "recurring channel closed").WithNode(string(id))
		}
		return v, nil
	case <-timeout:
		return types.BlockOutput{}, types.Errorf(types.ErrTickTimeout, "no value within %s", s.opts.TickTimeout).WithNode(string(id))
	case <-ctx.Done():
		return types.BlockOutput{}, types.NewError(types.ErrCancelled, "workflow cancelled").WithNode(string(id)).WithCause(ctx.Err())
	}
}

// runChild executes a nested definition with the node's input as the child's
// entry seed and reports the child's output as a single value.
func (s *scheduler) runChild(ctx context.Context, id NodeID, child *ChildWorkflowConfig, input types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(input); err != nil {
		return types.ExecutionResult{}, err
	}
	seed := collapse(input)

	attempt := func(ctx context.Context) (types.BlockOutput, error) {
		if child.TimeoutMS > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, time.Duration(child.TimeoutMS)*time.Millisecond)
			defer cancel()
		}
		childRun := NewRun(child.Definition)
		childRun.ParentID = s.run.ID
		res, err := s.executor.Execute(ctx, child.Definition, childRun, s.opts.childOptions(seed)...)
		if err != nil {
			return types.BlockOutput{}, err
		}
		return res.Output, nil
	}

	var (
		out types.BlockOutput
		err error
	)
	if child.RetryPolicy != nil {
		retryer := retry.NewRetryer(*child.RetryPolicy, s.logger.With(zap.String("node_id", string(id))))
		out, err = retry.DoWithResult(ctx, retryer, attempt)
	} else {
		out, err = attempt(ctx)
	}
	if err != nil {
		return types.ExecutionResult{}, types.NewError(types.ErrBlock, "child workflow failed").WithNode(string(id)).WithCause(err)
	}
	return types.Once(out), nil
}

// apply folds one outcome into run state. It runs on the scheduler goroutine.
func (s *scheduler) apply(t task, oc outcome) error {
	s.activations++

	if oc.err != nil {
		if handler, ok := s.def.ErrorHandler(t.node); ok && !types.IsRuntimeError(oc.err) {
			s.logger.Warn("node failed, routing to error handler",
				zap.String("node_id", string(t.node)),
				zap.String("handler", string(handler)),
				zap.Duration("duration", oc.duration),
				zap.Error(oc.err),
			)
			s.errorInputs[handler] = append(s.errorInputs[handler], oc.err.Error())
			s.failed.Add(t.node)
			return nil
		}
		s.logger.Error("node execution failed",
			zap.String("node_id", string(t.node)),
			zap.Duration("duration", oc.duration),
			zap.Error(oc.err),
		)
		return attributeTo(t.node, oc.err)
	}

	switch {
	case t.kind == taskPull:
		s.values.setOnce(t.node, oc.result.Output)
	case oc.result.Kind == types.ResultMultiple:
		s.values.setMultiple(t.node, oc.result.Outputs)
	case oc.result.Kind == types.ResultRecurring:
		s.streams[t.node] = oc.result.Stream
		s.values.setOnce(t.node, oc.first)
	default:
		s.values.setOnce(t.node, oc.result.Output)
	}

	s.run.markCompleted(t.node)
	s.failed.Remove(t.node)
	s.lastNode = t.node

	// A fresh value re-arms successors that already ran, which is what lets
	// cycles and recurring triggers drive downstream nodes again.
	for _, next := range Successors(s.def, t.node) {
		if s.run.IsCompleted(next) {
			s.run.unmarkCompleted(next)
		}
		s.failed.Remove(next)
	}

	s.logger.Debug("node execution completed",
		zap.String("node_id", string(t.node)),
		zap.Duration("duration", oc.duration),
	)
	return nil
}

// next computes the following frontier. Error handlers join the wavefront once
// per queued failure and nodes whose failure was routed wait until an upstream
// value re-arms them.
// Recurring producers are offered again only once everything else drained.
func (s *scheduler) next() ([]NodeID, bool) {
	set := NewNodeSet()
	for _, id := range Ready(s.def, s.run.CompletedBlockIDs()) {
		if !s.failed.Has(id) {
			set.Add(id)
		}
	}
	for handler := range s.errorInputs {
		set.Add(handler)
	}
	if len(set) > 0 {
		return set.Sorted(), false
	}
	if len(s.streams) == 0 {
		return nil, false
	}
	for id := range s.streams {
		set.Add(id)
	}
	return set.Sorted(), true
}

func (s *scheduler) exhausted(ctx context.Context, sink NodeID) *Result {
	s.logger.Warn("iteration budget exhausted",
		zap.Int("iteration_budget", s.opts.IterationBudget),
		zap.Int("activations", s.activations),
	)
	s.executor.observer.OnBudgetExhausted(ctx, s.run, s.activations)

	out, node, ok := s.output(sink)
	if !ok {
		out = types.EmptyOutput()
	}
	return &Result{
		RunID:           s.run.ID,
		Output:          out,
		Node:            node,
		Activations:     s.activations,
		BudgetExhausted: true,
	}
}

// output picks the reported value: the primary sink when it produced one,
// otherwise the most recently produced value.
func (s *scheduler) output(sink NodeID) (types.BlockOutput, NodeID, bool) {
	if out, ok := s.values.whole(sink); ok {
		return out, sink, true
	}
	if s.lastNode != "" {
		if out, ok := s.values.whole(s.lastNode); ok {
			return out, s.lastNode, true
		}
	}
	return types.BlockOutput{}, "", false
}

// collapse turns any input into one output for seeding a child workflow.
func collapse(in types.BlockInput) types.BlockOutput {
	if out, ok := in.Output(); ok {
		return out
	}
	items := make([]any, len(in.Outputs))
	for i, o := range in.Outputs {
		items[i] = o.JSONValue()
	}
	return types.JSONOutput(items)
}

// attributeTo tags err with the node it came from. Structured errors are
// copied, never mutated.
func attributeTo(id NodeID, err error) error {
	if typed, ok := err.(*types.Error); ok {
		if typed.Node != "" {
			return typed
		}
		c := *typed
		c.Node = string(id)
		return &c
	}
	var typed *types.Error
	if errors.As(err, &typed) {
		return err
	}
	return fmt.Errorf("node %s failed: %w", id, err)
}
