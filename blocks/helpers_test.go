package blocks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/blockflow/types"
	"github.com/BaSui01/blockflow/workflow"
)

// build resolves p through a registry holding the built-ins.
func build(t *testing.T, p workflow.Payload, opts ...Option) types.Block {
	t.Helper()
	block, err := buildErr(t, p, opts...)
	require.NoError(t, err)
	return block
}

func buildErr(t *testing.T, p workflow.Payload, opts ...Option) (types.Block, error) {
	t.Helper()
	reg := DefaultRegistry(zaptest.NewLogger(t), opts...)
	return reg.Get(workflow.NewBlockConfig(p))
}

// once executes block and returns its single output.
func once(t *testing.T, block types.Block, in types.BlockInput) types.BlockOutput {
	t.Helper()
	res, err := block.Execute(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, types.ResultOnce, res.Kind)
	return res.Output
}

// multiple executes block and returns its fan-out outputs.
func multiple(t *testing.T, block types.Block, in types.BlockInput) []types.BlockOutput {
	t.Helper()
	res, err := block.Execute(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, types.ResultMultiple, res.Kind)
	return res.Outputs
}

// drain reads a Recurring stream until it closes or the deadline passes.
func drain(t *testing.T, stream <-chan types.BlockOutput, timeout time.Duration) []types.BlockOutput {
	t.Helper()
	var outs []types.BlockOutput
	deadline := time.After(timeout)
	for {
		select {
		case out, ok := <-stream:
			if !ok {
				return outs
			}
			outs = append(outs, out)
		case <-deadline:
			t.Fatalf("stream did not close within %s (got %d values)", timeout, len(outs))
			return outs
		}
	}
}

// take reads exactly n values from a Recurring stream.
func take(t *testing.T, stream <-chan types.BlockOutput, n int, timeout time.Duration) []types.BlockOutput {
	t.Helper()
	outs := make([]types.BlockOutput, 0, n)
	deadline := time.After(timeout)
	for len(outs) < n {
		select {
		case out, ok := <-stream:
			if !ok {
				t.Fatalf("stream closed after %d of %d values", len(outs), n)
			}
			outs = append(outs, out)
		case <-deadline:
			t.Fatalf("got %d of %d values within %s", len(outs), n, timeout)
		}
	}
	return outs
}

func strIn(s string) types.BlockInput         { return types.InputOf(types.StringOutput(s)) }
func textIn(s string) types.BlockInput        { return types.InputOf(types.TextOutput(s)) }
func jsonIn(v any) types.BlockInput           { return types.InputOf(types.JSONOutput(v)) }
func listIn(items ...string) types.BlockInput { return types.InputOf(types.ListOutput(items)) }
