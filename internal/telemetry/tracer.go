package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/blockflow/workflow"
)

const instrumentationName = "github.com/BaSui01/blockflow/workflow"

// Span attribute keys.
const (
	AttrRunID        = attribute.Key("blockflow.run.id")
	AttrParentRunID  = attribute.Key("blockflow.run.parent_id")
	AttrDefinitionID = attribute.Key("blockflow.definition.id")
	AttrNodeID       = attribute.Key("blockflow.node.id")
	AttrBlockType    = attribute.Key("blockflow.block.type")
	AttrActivation   = attribute.Key("blockflow.node.activation")
	AttrResult       = attribute.Key("blockflow.node.result")
	AttrErrorHandler = attribute.Key("blockflow.node.error_handler")
	AttrActivations  = attribute.Key("blockflow.run.activations")
	AttrBudget       = attribute.Key("blockflow.run.budget_exhausted")
	AttrOutputNode   = attribute.Key("blockflow.run.output_node")
)

// Tracer is a workflow.Observer that records one span per run and one child
// span per node activation, plus OTel counters for activations.
// Child workflow runs nest under their parent run's span.
type Tracer struct {
	tracer      trace.Tracer
	activations metric.Int64Counter
	runDuration metric.Float64Histogram
	logger      *zap.Logger

	runs  sync.Map // run ID -> trace.Span
	nodes sync.Map // nodeKey -> trace.Span
}

var _ workflow.Observer = (*Tracer)(nil)

// NewTracer builds a Tracer. Nil providers fall back to the otel globals.
func NewTracer(tp trace.TracerProvider, mp metric.MeterProvider, logger *zap.Logger) (*Tracer, error) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	meter := mp.Meter(instrumentationName)
	activations, err := meter.Int64Counter("blockflow.node.activations",
		metric.WithDescription("Number of node activations"),
	)
	if err != nil {
		return nil, fmt.Errorf("create activation counter: %w", err)
	}
	runDuration, err := meter.Float64Histogram("blockflow.run.duration",
		metric.WithDescription("Workflow run duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create run duration histogram: %w", err)
	}

	return &Tracer{
		tracer:      tp.Tracer(instrumentationName),
		activations: activations,
		runDuration: runDuration,
		logger:      logger.With(zap.String("component", "tracer")),
	}, nil
}

func nodeKey(runID string, node workflow.NodeID, activation int) string {
	return fmt.Sprintf("%s/%s/%d", runID, node, activation)
}

// runContext returns ctx carrying the span of runID, when one is open.
func (t *Tracer) runContext(ctx context.Context, runID string) context.Context {
	if v, ok := t.runs.Load(runID); ok {
		return trace.ContextWithSpan(ctx, v.(trace.Span))
	}
	return ctx
}

func (t *Tracer) OnRunStart(ctx context.Context, run *workflow.Run) {
	if run.ParentID != "" {
		ctx = t.runContext(ctx, run.ParentID)
	}
	attrs := []attribute.KeyValue{
		AttrRunID.String(run.ID),
		AttrDefinitionID.String(run.DefinitionID),
	}
	if run.ParentID != "" {
		attrs = append(attrs, AttrParentRunID.String(run.ParentID))
	}
	_, span := t.tracer.Start(ctx, "workflow.run", trace.WithAttributes(attrs...))
	t.runs.Store(run.ID, span)
}

func (t *Tracer) OnRunFinish(ctx context.Context, run *workflow.Run, result *workflow.Result, err error) {
	v, ok := t.runs.LoadAndDelete(run.ID)
	if !ok {
		// Runs rejected before starting still get a span so the failure is visible.
		_, span := t.tracer.Start(ctx, "workflow.run", trace.WithAttributes(
			AttrRunID.String(run.ID),
			AttrDefinitionID.String(run.DefinitionID),
		))
		v = span
	}
	span := v.(trace.Span)
	defer span.End()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	if result != nil {
		span.SetAttributes(
			AttrActivations.Int(result.Activations),
			AttrBudget.Bool(result.BudgetExhausted),
			AttrOutputNode.String(string(result.Node)),
		)
	}

	if started := run.StartedAt(); !started.IsZero() {
		finished := run.FinishedAt()
		if !finished.IsZero() {
			t.runDuration.Record(ctx, finished.Sub(started).Seconds(),
				metric.WithAttributes(attribute.Bool("failed", err != nil)))
		}
	}
}

func (t *Tracer) OnNodeStart(ctx context.Context, run *workflow.Run, ev workflow.NodeEvent) {
	_, span := t.tracer.Start(t.runContext(ctx, run.ID), "workflow.node "+string(ev.Node),
		trace.WithAttributes(
			AttrRunID.String(ev.RunID),
			AttrNodeID.String(string(ev.Node)),
			AttrBlockType.String(ev.BlockType),
			AttrActivation.Int(ev.Activation),
		),
	)
	t.nodes.Store(nodeKey(run.ID, ev.Node, ev.Activation), span)
}

func (t *Tracer) OnNodeFinish(ctx context.Context, run *workflow.Run, ev workflow.NodeEvent) {
	result := ev.Result.String()
	if ev.Err != nil {
		result = "error"
	}
	t.activations.Add(ctx, 1, metric.WithAttributes(
		AttrBlockType.String(ev.BlockType),
		AttrResult.String(result),
	))

	v, ok := t.nodes.LoadAndDelete(nodeKey(run.ID, ev.Node, ev.Activation))
	if !ok {
		t.logger.Debug("node finished without an open span",
			zap.String("run_id", run.ID),
			zap.String("node_id", string(ev.Node)),
		)
		return
	}
	span := v.(trace.Span)
	defer span.End()

	span.SetAttributes(AttrResult.String(result))
	if ev.Err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(ev.Err)
	if ev.ErrorHandler != "" {
		// Routed failures don't fail the run.
		span.SetAttributes(AttrErrorHandler.String(string(ev.ErrorHandler)))
		return
	}
	span.SetStatus(codes.Error, ev.Err.Error())
}

func (t *Tracer) OnBudgetExhausted(_ context.Context, run *workflow.Run, activations int) {
	if v, ok := t.runs.Load(run.ID); ok {
		v.(trace.Span).AddEvent("iteration_budget_exhausted",
			trace.WithAttributes(AttrActivations.Int(activations)))
	}
}
