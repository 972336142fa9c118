// RecordingObserver 按顺序记录 workflow.Observer 事件。
package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/blockflow/workflow"
)

// EventKind 观察者事件类型
type EventKind string

const (
	EventRunStart        EventKind = "run_start"
	EventRunFinish       EventKind = "run_finish"
	EventNodeStart       EventKind = "node_start"
	EventNodeFinish      EventKind = "node_finish"
	EventBudgetExhausted EventKind = "budget_exhausted"
)

// Event 单条观察者事件
type Event struct {
	Kind   EventKind
	RunID  string
	Node   workflow.NodeID
	Result *workflow.Result
	Err    error
	NodeEv workflow.NodeEvent
}

// RecordingObserver 是可并发使用的 workflow.Observer 记录实现
type RecordingObserver struct {
	mu     sync.Mutex
	events []Event
}

var _ workflow.Observer = (*RecordingObserver)(nil)

// NewRecordingObserver 创建空的 RecordingObserver
func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{}
}

func (o *RecordingObserver) record(ev Event) {
	o.mu.Lock()
	o.events = append(o.events, ev)
	o.mu.Unlock()
}

func (o *RecordingObserver) OnRunStart(_ context.Context, run *workflow.Run) {
	o.record(Event{Kind: EventRunStart, RunID: run.ID})
}

func (o *RecordingObserver) OnRunFinish(_ context.Context, run *workflow.Run, result *workflow.Result, err error) {
	o.record(Event{Kind: EventRunFinish, RunID: run.ID, Result: result, Err: err})
}

func (o *RecordingObserver) OnNodeStart(_ context.Context, run *workflow.Run, ev workflow.NodeEvent) {
	o.record(Event{Kind: EventNodeStart, RunID: run.ID, Node: ev.Node, NodeEv: ev})
}

func (o *RecordingObserver) OnNodeFinish(_ context.Context, run *workflow.Run, ev workflow.NodeEvent) {
	o.record(Event{Kind: EventNodeFinish, RunID: run.ID, Node: ev.Node, Err: ev.Err, NodeEv: ev})
}

func (o *RecordingObserver) OnBudgetExhausted(_ context.Context, run *workflow.Run, _ int) {
	o.record(Event{Kind: EventBudgetExhausted, RunID: run.ID})
}

// Events 返回事件副本
func (o *RecordingObserver) Events() []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Event(nil), o.events...)
}

// Count 返回指定类型的事件数
func (o *RecordingObserver) Count(kind EventKind) int {
	n := 0
	for _, ev := range o.Events() {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// Finished 返回按完成顺序排列的节点
func (o *RecordingObserver) Finished() []workflow.NodeID {
	var nodes []workflow.NodeID
	for _, ev := range o.Events() {
		if ev.Kind == EventNodeFinish {
			nodes = append(nodes, ev.Node)
		}
	}
	return nodes
}

// RoutedErrors 返回失败后被错误边接管的节点
func (o *RecordingObserver) RoutedErrors() []workflow.NodeID {
	var nodes []workflow.NodeID
	for _, ev := range o.Events() {
		if ev.Kind == EventNodeFinish && ev.Err != nil && ev.NodeEv.ErrorHandler != "" {
			nodes = append(nodes, ev.Node)
		}
	}
	return nodes
}
