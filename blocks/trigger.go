package blocks

import (
	"context"
	"strings"
	"time"

	"github.com/robfig/cron"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/blockflow/types"
)

// =============================================================================
// cron
// =============================================================================

type cronBlock struct {
	schedule cron.Schedule
	spec     string
	logger   *zap.Logger
}

// parseSchedule accepts standard five-field expressions, six-field
// expressions with a leading seconds field, and descriptors such as
// "@hourly" or "@every 1m".
func parseSchedule(spec string) (cron.Schedule, error) {
	if len(strings.Fields(spec)) == 5 {
		return cron.ParseStandard(spec)
	}
	return cron.Parse(spec)
}

func (e *env) newCron(cfg CronConfig) (types.Block, error) {
	if cfg.Schedule == "" {
		return nil, types.NewError(types.ErrBuild, "cron requires a schedule")
	}
	sched, err := parseSchedule(cfg.Schedule)
	if err != nil {
		return nil, types.Errorf(types.ErrBuild, "cron: invalid schedule %q", cfg.Schedule).WithCause(err)
	}
	return &cronBlock{
		schedule: sched,
		spec:     cfg.Schedule,
		logger:   e.logger.With(zap.String("block", TypeCron)),
	}, nil
}

// Execute starts a producer that emits the RFC3339 fire time on every
// schedule match until ctx ends.
func (b *cronBlock) Execute(ctx context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}
	ch := make(chan types.BlockOutput)
	go func() {
		defer close(ch)
		for {
			now := time.Now()
			next := b.schedule.Next(now)
			if next.IsZero() {
				b.logger.Debug("schedule has no further activations", zap.String("schedule", b.spec))
				return
			}
			timer := time.NewTimer(next.Sub(now))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			if !emit(ctx, ch, types.TextOutput(next.Format(time.RFC3339))) {
				return
			}
		}
	}()
	return types.Recurring(ch), nil
}

// =============================================================================
// interval_trigger
// =============================================================================

type intervalBlock struct {
	interval time.Duration
}

func (e *env) newIntervalTrigger(cfg IntervalTriggerConfig) (types.Block, error) {
	if cfg.IntervalMS == 0 {
		return nil, types.NewError(types.ErrBuild, "interval_trigger requires interval_ms > 0")
	}
	return &intervalBlock{
		interval: time.Duration(cfg.IntervalMS) * time.Millisecond,
	}, nil
}

// Execute emits {"tick": n, "at": timestamp} paced by a token bucket with a
// burst of one, so the first tick is immediate.
func (b *intervalBlock) Execute(ctx context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}
	limiter := rate.NewLimiter(rate.Every(b.interval), 1)
	ch := make(chan types.BlockOutput)
	go func() {
		defer close(ch)
		for tick := 1; ; tick++ {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			out := types.JSONOutput(map[string]any{
				"tick": tick,
				"at":   time.Now().UTC().Format(time.RFC3339Nano),
			})
			if !emit(ctx, ch, out) {
				return
			}
		}
	}()
	return types.Recurring(ch), nil
}

// emit sends out unless ctx ends first.
func emit(ctx context.Context, ch chan<- types.BlockOutput, out types.BlockOutput) bool {
	select {
	case ch <- out:
		return true
	case <-ctx.Done():
		return false
	}
}
