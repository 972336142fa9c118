package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/blockflow/testutil"
	"github.com/BaSui01/blockflow/testutil/fixtures"
	"github.com/BaSui01/blockflow/testutil/mocks"
	"github.com/BaSui01/blockflow/types"
	"github.com/BaSui01/blockflow/workflow"
)

type tracerHarness struct {
	tracer   *Tracer
	spans    *tracetest.SpanRecorder
	reader   *sdkmetric.ManualReader
	executor *workflow.Executor
}

func newTracerHarness(t *testing.T) *tracerHarness {
	t.Helper()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	tracer, err := NewTracer(tp, mp, zaptest.NewLogger(t))
	require.NoError(t, err)

	blocks := map[string]types.Block{
		"pass":   mocks.PassThrough(),
		"fail":   mocks.Failing(types.NewError(types.ErrIO, "boom")),
		"handle": mocks.Constant(types.TextOutput("handled")),
	}

	return &tracerHarness{
		tracer:   tracer,
		spans:    spans,
		reader:   reader,
		executor: testutil.NewExecutor(t, blocks, workflow.WithObserver(tracer)),
	}
}

func (h *tracerHarness) spanNamed(t *testing.T, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, s := range h.spans.Ended() {
		if s.Name() == name {
			return s
		}
	}
	t.Fatalf("span %q not recorded", name)
	return nil
}

func (h *tracerHarness) activationCount(t *testing.T) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, h.reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "blockflow.node.activations" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestTracer_RunAndNodeSpans(t *testing.T) {
	h := newTracerHarness(t)
	def := workflow.NewBuilder("linear").
		AddNode("a", workflow.CustomConfig("pass", nil)).WithInput(types.StringOutput("x")).Done().
		AddNode("b", workflow.CustomConfig("pass", nil)).Done().
		AddEdge("a", "b").SetEntry("a").MustBuild()

	res, err := h.executor.Run(context.Background(), def)
	require.NoError(t, err)

	require.Len(t, h.spans.Ended(), 3)
	run := h.spanNamed(t, "workflow.run")
	assert.Equal(t, codes.Ok, run.Status().Code)
	assert.Contains(t, run.Attributes(), AttrRunID.String(res.RunID))
	assert.Contains(t, run.Attributes(), AttrActivations.Int(2))

	node := h.spanNamed(t, "workflow.node b")
	assert.Equal(t, run.SpanContext().SpanID(), node.Parent().SpanID())
	assert.Contains(t, node.Attributes(), AttrBlockType.String("pass"))
	assert.Contains(t, node.Attributes(), AttrResult.String("once"))

	assert.Equal(t, int64(2), h.activationCount(t))
}

func TestTracer_FailedRun(t *testing.T) {
	h := newTracerHarness(t)
	def := workflow.NewBuilder("failing").
		AddNode("a", workflow.CustomConfig("fail", nil)).Done().
		SetEntry("a").MustBuild()

	_, err := h.executor.Run(context.Background(), def)
	require.Error(t, err)

	assert.Equal(t, codes.Error, h.spanNamed(t, "workflow.run").Status().Code)
	node := h.spanNamed(t, "workflow.node a")
	assert.Equal(t, codes.Error, node.Status().Code)
	require.NotEmpty(t, node.Events())
	assert.Equal(t, "exception", node.Events()[0].Name)
}

func TestTracer_RoutedErrorKeepsRunOk(t *testing.T) {
	h := newTracerHarness(t)
	def := workflow.NewBuilder("routed").
		AddNode("a", workflow.CustomConfig("fail", nil)).Done().
		AddNode("h", workflow.CustomConfig("handle", nil)).Done().
		AddErrorEdge("a", "h").
		SetEntry("a").MustBuild()

	_, err := h.executor.Run(context.Background(), def)
	require.NoError(t, err)

	node := h.spanNamed(t, "workflow.node a")
	assert.NotEqual(t, codes.Error, node.Status().Code)
	assert.Contains(t, node.Attributes(), AttrErrorHandler.String("h"))
	assert.Equal(t, codes.Ok, h.spanNamed(t, "workflow.run").Status().Code)
}

func TestTracer_ChildRunNestsUnderParent(t *testing.T) {
	h := newTracerHarness(t)
	child := workflow.NewBuilder("child").
		AddNode("c", workflow.CustomConfig("pass", nil)).Done().
		SetEntry("c").MustBuild()
	parent := workflow.NewBuilder("parent").
		AddNode("p", workflow.CustomConfig("pass", nil)).WithInput(types.StringOutput("seed")).Done().
		AddNode("sub", workflow.NewChildWorkflow(child)).Done().
		AddEdge("p", "sub").SetEntry("p").MustBuild()

	_, err := h.executor.Run(context.Background(), parent)
	require.NoError(t, err)

	var runs []sdktrace.ReadOnlySpan
	for _, s := range h.spans.Ended() {
		if s.Name() == "workflow.run" {
			runs = append(runs, s)
		}
	}
	require.Len(t, runs, 2)

	// The child run ends first.
	childRun, parentRun := runs[0], runs[1]
	assert.Equal(t, parentRun.SpanContext().TraceID(), childRun.SpanContext().TraceID())
	assert.Equal(t, parentRun.SpanContext().SpanID(), childRun.Parent().SpanID())
}

func TestTracer_BudgetEvent(t *testing.T) {
	h := newTracerHarness(t)
	def := fixtures.Loop("pass", types.StringOutput("x"))

	res, err := h.executor.Run(testutil.TestContext(t), def, workflow.WithIterationBudget(3))
	require.NoError(t, err)
	require.True(t, res.BudgetExhausted)

	run := h.spanNamed(t, "workflow.run")
	require.Len(t, run.Events(), 1)
	assert.Equal(t, "iteration_budget_exhausted", run.Events()[0].Name)
	assert.Contains(t, run.Attributes(), AttrBudget.Bool(true))
}

func TestTracer_UnstartedRun(t *testing.T) {
	h := newTracerHarness(t)
	def := workflow.NewBuilder("x").AddNode("a", workflow.CustomConfig("pass", nil)).Done().SetEntry("a").MustBuild()
	run := workflow.NewRun(def)

	h.tracer.OnRunFinish(context.Background(), run, nil, types.NewError(types.ErrBuild, "invalid"))
	assert.Equal(t, codes.Error, h.spanNamed(t, "workflow.run").Status().Code)

	// A stray finish without a start is ignored apart from the counter.
	h.tracer.OnNodeFinish(context.Background(), run, workflow.NodeEvent{Node: "a", BlockType: "pass"})
	assert.Len(t, h.spans.Ended(), 1)
	assert.Equal(t, int64(1), h.activationCount(t))
}

func TestNewTracer_GlobalFallback(t *testing.T) {
	restoreGlobals(t)
	tracer, err := NewTracer(nil, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, tracer.tracer)
}

func TestTracer_FanInSpans(t *testing.T) {
	h := newTracerHarness(t)

	res, err := h.executor.Run(testutil.TestContext(t), fixtures.Diamond("pass"),
		workflow.WithInput(types.StringOutput("x")))
	require.NoError(t, err)
	testutil.AssertOutputEqual(t, types.JSONOutput([]any{"x", "x"}), res.Output)

	run := h.spanNamed(t, "workflow.run")
	for _, id := range []string{"start", "left", "right", "join"} {
		node := h.spanNamed(t, "workflow.node "+id)
		assert.Equal(t, run.SpanContext().SpanID(), node.Parent().SpanID(), id)
	}
	assert.Equal(t, int64(4), h.activationCount(t))
}

func TestTracer_ErrorRoutedFixture(t *testing.T) {
	h := newTracerHarness(t)

	_, err := h.executor.Run(testutil.TestContext(t), fixtures.ErrorRouted("pass", "fail", "handle"),
		workflow.WithInput(types.StringOutput("x")))
	require.NoError(t, err)

	failing := h.spanNamed(t, "workflow.node failing")
	assert.Contains(t, failing.Attributes(), AttrErrorHandler.String("handler"))
	assert.Equal(t, codes.Ok, h.spanNamed(t, "workflow.node handler").Status().Code)
	assert.Equal(t, codes.Ok, h.spanNamed(t, "workflow.run").Status().Code)
}
