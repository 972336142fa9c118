// MockBlock 的块测试模拟实现。
//
// 支持固定输出、错误注入、前 N 次失败与 Recurring 流。
package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/blockflow/types"
)

// --- MockBlock 结构 ---

// BlockFunc 自定义执行函数
type BlockFunc func(ctx context.Context, in types.BlockInput) (types.ExecutionResult, error)

// MockBlock 是 types.Block 的模拟实现，可并发调用
type MockBlock struct {
	mu sync.Mutex

	// 行为
	result    *types.ExecutionResult
	err       error
	failTimes int
	failErr   error
	stream    []types.BlockOutput
	fn        BlockFunc

	// 调用记录
	inputs []types.BlockInput
}

var _ types.Block = (*MockBlock)(nil)

// --- 构造函数和 Builder 方法 ---

// NewMockBlock 创建默认直通输入的 MockBlock
func NewMockBlock() *MockBlock {
	return &MockBlock{}
}

// PassThrough 返回直通块：单个输入原样输出，Multi 输出为 Json 数组，Error 输入返回错误。
// 设置了固定输出、错误或流的块忽略输入。
func PassThrough() *MockBlock {
	return NewMockBlock()
}

// Constant 返回始终输出 out 的块
func Constant(out types.BlockOutput) *MockBlock {
	return NewMockBlock().WithOutput(out)
}

// Failing 返回始终失败的块
func Failing(err error) *MockBlock {
	return NewMockBlock().WithError(err)
}

// WithOutput 设置固定输出
func (m *MockBlock) WithOutput(out types.BlockOutput) *MockBlock {
	return m.WithResult(types.Once(out))
}

// WithResult 设置固定执行结果
func (m *MockBlock) WithResult(res types.ExecutionResult) *MockBlock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = &res
	return m
}

// WithError 设置固定错误
func (m *MockBlock) WithError(err error) *MockBlock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithFailures 前 n 次调用返回 err，之后按其他配置执行
func (m *MockBlock) WithFailures(n int, err error) *MockBlock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failTimes = n
	m.failErr = err
	return m
}

// WithStream 每次调用返回一个依次发送 outs 后关闭的 Recurring 流
func (m *MockBlock) WithStream(outs ...types.BlockOutput) *MockBlock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stream = append([]types.BlockOutput(nil), outs...)
	return m
}

// WithFunc 设置自定义执行函数，优先级最高
func (m *MockBlock) WithFunc(fn BlockFunc) *MockBlock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fn = fn
	return m
}

// --- 执行 ---

// Execute 实现 types.Block
func (m *MockBlock) Execute(ctx context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	m.mu.Lock()
	m.inputs = append(m.inputs, in)
	fn := m.fn
	if m.failTimes > 0 {
		m.failTimes--
		err := m.failErr
		m.mu.Unlock()
		return types.ExecutionResult{}, err
	}
	result, err, stream := m.result, m.err, m.stream
	m.mu.Unlock()

	switch {
	case fn != nil:
		return fn(ctx, in)
	case err != nil:
		return types.ExecutionResult{}, err
	case stream != nil:
		return types.Recurring(sendAll(ctx, stream)), nil
	case result != nil:
		return *result, nil
	}

	// 直通模式才传播上游错误
	if inErr := types.ErrorFromInput(in); inErr != nil {
		return types.ExecutionResult{}, inErr
	}
	if out, ok := in.Output(); ok {
		return types.Once(out), nil
	}
	items := make([]any, len(in.Outputs))
	for i, out := range in.Outputs {
		items[i] = out.JSONValue()
	}
	return types.Once(types.JSONOutput(items)), nil
}

func sendAll(ctx context.Context, outs []types.BlockOutput) <-chan types.BlockOutput {
	ch := make(chan types.BlockOutput)
	go func() {
		defer close(ch)
		for _, out := range outs {
			select {
			case ch <- out:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// --- 调用记录 ---

// Inputs 返回所有调用的输入副本
func (m *MockBlock) Inputs() []types.BlockInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.BlockInput(nil), m.inputs...)
}

// CallCount 返回调用次数
func (m *MockBlock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inputs)
}

// LastInput 返回最后一次调用的输入
func (m *MockBlock) LastInput() (types.BlockInput, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.inputs) == 0 {
		return types.BlockInput{}, false
	}
	return m.inputs[len(m.inputs)-1], true
}

// Reset 清空调用记录
func (m *MockBlock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = nil
}
