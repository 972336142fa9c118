package testutil

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/blockflow/types"
	"github.com/BaSui01/blockflow/workflow"
)

// =============================================================================
// 🧪 上下文辅助
// =============================================================================

func TestContexts(t *testing.T) {
	ctx := TestContextWithTimeout(t, time.Minute)
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)

	assert.ErrorIs(t, CancelledContext().Err(), context.Canceled)
	assert.NoError(t, TestContext(t).Err())
}

// =============================================================================
// 🧪 执行器辅助
// =============================================================================

func TestNewExecutor(t *testing.T) {
	upper := types.BlockFunc(func(_ context.Context, in types.BlockInput) (types.ExecutionResult, error) {
		return types.Once(types.StringOutput(in.Text() + "!")), nil
	})
	exec := NewExecutor(t, map[string]types.Block{"bang": upper})
	assert.True(t, exec.Registry().Has("bang"))

	def := workflow.NewBuilder("t").
		AddNode("a", workflow.CustomConfig("bang", nil)).Done().
		AddNode("b", workflow.CustomConfig("bang", nil)).Done().
		AddEdge("a", "b").SetEntry("a").MustBuild()

	res, err := exec.Run(TestContext(t), def, workflow.WithInput(types.StringOutput("hi")))
	require.NoError(t, err)
	AssertOutputEqual(t, types.StringOutput("hi!!"), res.Output)
}

// =============================================================================
// 🧪 断言与等待
// =============================================================================

func TestAssertJSONEqual_IgnoresNumberTypes(t *testing.T) {
	AssertJSONEqual(t, map[string]any{"n": 1}, map[string]any{"n": 1.0})
	AssertOutputEqual(t, types.JSONOutput([]any{1}), types.JSONOutput([]any{1.0}))
}

func TestWaitFor(t *testing.T) {
	var ready atomic.Bool
	go func() {
		time.Sleep(20 * time.Millisecond)
		ready.Store(true)
	}()
	AssertEventuallyTrue(t, ready.Load, time.Second)

	assert.False(t, WaitFor(func() bool { return false }, 30*time.Millisecond))
}

func TestWaitForChannel(t *testing.T) {
	ch := make(chan int, 1)
	ch <- 7
	v, ok := WaitForChannel(ch, time.Second)
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	_, ok = WaitForChannel(make(chan int), 20*time.Millisecond)
	assert.False(t, ok)
}

// =============================================================================
// 🧪 Recurring 与数据辅助
// =============================================================================

func TestSendAndCollectOutputs(t *testing.T) {
	outs := []types.BlockOutput{types.StringOutput("a"), types.TextOutput("b")}
	assert.Equal(t, outs, CollectOutputs(SendOutputs(outs...), time.Second))

	// 未关闭的通道在超时后返回已读到的值
	ch := make(chan types.BlockOutput, 1)
	ch <- types.StringOutput("only")
	assert.Equal(t, []types.BlockOutput{types.StringOutput("only")}, CollectOutputs(ch, 30*time.Millisecond))
}

func TestMustJSON(t *testing.T) {
	s := MustJSON(types.StringOutput("x"))
	assert.JSONEq(t, `{"type":"string","v":"x"}`, s)

	out := MustParseJSON[types.BlockOutput](s)
	assert.Equal(t, types.StringOutput("x"), out)

	assert.Panics(t, func() { MustParseJSON[map[string]any]("{") })
	assert.Panics(t, func() { MustJSON(make(chan int)) })
}
