// =============================================================================
// 🧪 测试辅助函数
// =============================================================================
// 提供通用的测试辅助函数和断言
//
// 使用方法:
//
//	exec := testutil.NewExecutor(t, map[string]types.Block{"pass": mocks.PassThrough()})
//	testutil.AssertOutputEqual(t, types.TextOutput("x"), res.Output)
// =============================================================================
package testutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/blockflow/types"
	"github.com/BaSui01/blockflow/workflow"
)

// =============================================================================
// 🎯 上下文辅助
// =============================================================================

// TestContext 返回带超时的测试上下文
func TestContext(t *testing.T) context.Context {
	return TestContextWithTimeout(t, 30*time.Second)
}

// TestContextWithTimeout 返回带自定义超时的测试上下文
func TestContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// CancelledContext 返回已取消的上下文
func CancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// =============================================================================
// 🧱 执行器辅助
// =============================================================================

// NewRegistry 将每个块按 map 的键注册为块类型
func NewRegistry(t testing.TB, blocks map[string]types.Block) *workflow.Registry {
	t.Helper()
	reg := workflow.NewRegistry(zaptest.NewLogger(t))
	for typeID, block := range blocks {
		block := block
		require.NoError(t, reg.Register(typeID, func(workflow.BlockConfig) (types.Block, error) {
			return block, nil
		}))
	}
	return reg
}

// NewExecutor 基于 NewRegistry 创建执行器
func NewExecutor(t testing.TB, blocks map[string]types.Block, opts ...workflow.ExecutorOption) *workflow.Executor {
	t.Helper()
	return workflow.NewExecutor(NewRegistry(t, blocks), zaptest.NewLogger(t), opts...)
}

// =============================================================================
// 🔍 断言辅助
// =============================================================================

// AssertOutputEqual 按线上表示比较两个输出，忽略 JSON 数字类型差异
func AssertOutputEqual(t testing.TB, expected, actual types.BlockOutput) {
	t.Helper()
	AssertJSONEqual(t, expected, actual)
}

// AssertJSONEqual 断言两个值的 JSON 表示相等
func AssertJSONEqual(t testing.TB, expected, actual any) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}

	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}

	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual: %s", expectedJSON, actualJSON)
	}
}

// AssertEventuallyTrue 断言条件最终为真
func AssertEventuallyTrue(t testing.TB, condition func() bool, timeout time.Duration) {
	t.Helper()
	if !WaitFor(condition, timeout) {
		t.Errorf("condition not met within %v", timeout)
	}
}

// =============================================================================
// ⏱️ 时间辅助
// =============================================================================

// WaitFor 等待条件满足或超时
func WaitFor(condition func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return condition()
}

// WaitForChannel 等待通道接收或超时
func WaitForChannel[T any](ch <-chan T, timeout time.Duration) (T, bool) {
	select {
	case v, ok := <-ch:
		return v, ok
	case <-time.After(timeout):
		var zero T
		return zero, false
	}
}

// =============================================================================
// 📡 Recurring 辅助
// =============================================================================

// SendOutputs 返回一个预先填满并已关闭的输出通道
func SendOutputs(outs ...types.BlockOutput) <-chan types.BlockOutput {
	ch := make(chan types.BlockOutput, len(outs))
	for _, out := range outs {
		ch <- out
	}
	close(ch)
	return ch
}

// CollectOutputs 读取通道直到关闭或超时
func CollectOutputs(ch <-chan types.BlockOutput, timeout time.Duration) []types.BlockOutput {
	var outs []types.BlockOutput
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case out, ok := <-ch:
			if !ok {
				return outs
			}
			outs = append(outs, out)
		case <-timer.C:
			return outs
		}
	}
}

// =============================================================================
// 🔧 测试数据辅助
// =============================================================================

// MustJSON 将值转换为 JSON 字符串，失败时 panic
func MustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// MustParseJSON 解析 JSON 字符串，失败时 panic
func MustParseJSON[T any](s string) T {
	var v T
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		panic(err)
	}
	return v
}
