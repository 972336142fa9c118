package blocks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/blockflow/types"
)

func TestIntervalTrigger(t *testing.T) {
	block := build(t, IntervalTriggerConfig{IntervalMS: 5})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	res, err := block.Execute(ctx, types.EmptyInput())
	require.NoError(t, err)
	require.Equal(t, types.ResultRecurring, res.Kind)

	outs := take(t, res.Stream, 3, 2*time.Second)
	for i, out := range outs {
		require.Equal(t, types.KindJSON, out.Kind)
		obj := out.Data.(map[string]any)
		assert.Equal(t, i+1, obj["tick"])
		_, err := time.Parse(time.RFC3339Nano, obj["at"].(string))
		assert.NoError(t, err)
	}
}

func TestIntervalTrigger_StopsOnCancel(t *testing.T) {
	block := build(t, IntervalTriggerConfig{IntervalMS: 1})

	ctx, cancel := context.WithCancel(context.Background())
	res, err := block.Execute(ctx, types.EmptyInput())
	require.NoError(t, err)

	<-res.Stream
	cancel()
	drain(t, res.Stream, 2*time.Second)
}

func TestIntervalTrigger_RequiresInterval(t *testing.T) {
	_, err := buildErr(t, IntervalTriggerConfig{})
	require.Error(t, err)
	assert.True(t, types.IsBuildError(err))
}

func TestCron(t *testing.T) {
	block := build(t, CronConfig{Schedule: "* * * * * *"})

	ctx, cancel := context.WithCancel(context.Background())
	res, err := block.Execute(ctx, types.EmptyInput())
	require.NoError(t, err)
	require.Equal(t, types.ResultRecurring, res.Kind)

	outs := take(t, res.Stream, 1, 3*time.Second)
	assert.Equal(t, types.KindText, outs[0].Kind)
	_, err = time.Parse(time.RFC3339, outs[0].Value)
	assert.NoError(t, err)

	cancel()
	drain(t, res.Stream, 3*time.Second)
}

func TestParseSchedule(t *testing.T) {
	valid := []string{"*/5 * * * *", "0 30 9 * * 1-5", "@hourly", "@every 2s"}
	for _, spec := range valid {
		_, err := parseSchedule(spec)
		assert.NoError(t, err, spec)
	}

	for _, spec := range []string{"", "not a schedule", "61 * * * *"} {
		_, err := buildErr(t, CronConfig{Schedule: spec})
		require.Error(t, err, spec)
		assert.True(t, types.IsBuildError(err), spec)
	}
}
