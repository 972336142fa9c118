package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/BaSui01/blockflow/types"
	"github.com/BaSui01/blockflow/workflow"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// 运行状态标签值
const (
	StatusCompleted       = "completed"
	StatusFailed          = "failed"
	StatusBudgetExhausted = "budget_exhausted"
)

// Collector 指标收集器，同时实现 workflow.Observer
type Collector struct {
	// 运行指标
	runsTotal    *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	runsInFlight prometheus.Gauge

	// 节点指标
	activationsTotal   *prometheus.CounterVec
	activationDuration *prometheus.HistogramVec
	routedErrorsTotal  *prometheus.CounterVec

	// 预算指标
	budgetExhaustedTotal prometheus.Counter

	logger *zap.Logger
}

var _ workflow.Observer = (*Collector)(nil)

// NewCollector 创建指标收集器，指标注册到 Prometheus 默认 Registry
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// 运行指标
	c.runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_runs_total",
			Help:      "Total number of finished workflow runs",
		},
		[]string{"status", "kind"}, // kind: root, child
	)

	c.runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_run_duration_seconds",
			Help:      "Workflow run duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120, 600},
		},
		[]string{"status"},
	)

	c.runsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workflow_runs_in_flight",
			Help:      "Number of workflow runs currently executing",
		},
	)

	// 节点指标
	c.activationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_activations_total",
			Help:      "Total number of node activations",
		},
		[]string{"block_type", "result"}, // result: once, multiple, recurring, error
	)

	c.activationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_activation_duration_seconds",
			Help:      "Node activation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"block_type"},
	)

	c.routedErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_errors_routed_total",
			Help:      "Total number of node failures routed to an error handler",
		},
		[]string{"block_type"},
	)

	// 预算指标
	c.budgetExhaustedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "iteration_budget_exhausted_total",
			Help:      "Total number of runs stopped by the iteration budget",
		},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 Observer 实现
// =============================================================================

// OnRunStart 记录运行开始
func (c *Collector) OnRunStart(_ context.Context, _ *workflow.Run) {
	c.runsInFlight.Inc()
}

// OnRunFinish 记录运行结束
func (c *Collector) OnRunFinish(_ context.Context, run *workflow.Run, result *workflow.Result, err error) {
	status := StatusCompleted
	switch {
	case err != nil:
		status = StatusFailed
	case result != nil && result.BudgetExhausted:
		status = StatusBudgetExhausted
	}
	kind := "root"
	if run.ParentID != "" {
		kind = "child"
	}
	c.runsTotal.WithLabelValues(status, kind).Inc()

	// 校验失败的运行从未开始
	if started := run.StartedAt(); !started.IsZero() {
		c.runsInFlight.Dec()
		finished := run.FinishedAt()
		if finished.IsZero() {
			finished = time.Now()
		}
		c.runDuration.WithLabelValues(status).Observe(finished.Sub(started).Seconds())
	}
}

// OnNodeStart 不记录指标
func (c *Collector) OnNodeStart(context.Context, *workflow.Run, workflow.NodeEvent) {}

// OnNodeFinish 记录节点激活
func (c *Collector) OnNodeFinish(_ context.Context, _ *workflow.Run, ev workflow.NodeEvent) {
	c.activationsTotal.WithLabelValues(ev.BlockType, resultLabel(ev)).Inc()
	c.activationDuration.WithLabelValues(ev.BlockType).Observe(ev.Duration.Seconds())
	if ev.Err != nil && ev.ErrorHandler != "" {
		c.routedErrorsTotal.WithLabelValues(ev.BlockType).Inc()
	}
}

// OnBudgetExhausted 记录预算耗尽
func (c *Collector) OnBudgetExhausted(_ context.Context, run *workflow.Run, activations int) {
	c.budgetExhaustedTotal.Inc()
	c.logger.Debug("iteration budget exhausted",
		zap.String("run_id", run.ID),
		zap.Int("activations", activations),
	)
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// resultLabel 将激活结果归类为标签值
func resultLabel(ev workflow.NodeEvent) string {
	if ev.Err != nil {
		return "error"
	}
	switch ev.Result {
	case types.ResultMultiple:
		return "multiple"
	case types.ResultRecurring:
		return "recurring"
	default:
		return "once"
	}
}
