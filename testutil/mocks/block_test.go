package mocks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/blockflow/types"
)

func TestMockBlock_PassThrough(t *testing.T) {
	b := PassThrough()
	ctx := context.Background()

	res, err := b.Execute(ctx, types.InputOf(types.TextOutput("x")))
	require.NoError(t, err)
	assert.Equal(t, types.TextOutput("x"), res.Output)

	res, err = b.Execute(ctx, types.MultiInput(types.StringOutput("a"), types.TextOutput("b")))
	require.NoError(t, err)
	assert.Equal(t, types.JSONOutput([]any{"a", "b"}), res.Output)

	_, err = b.Execute(ctx, types.ErrorInput("upstream"))
	require.Error(t, err)
	assert.Equal(t, 3, b.CallCount())
}

func TestMockBlock_ConstantIgnoresErrorInput(t *testing.T) {
	b := Constant(types.TextOutput("handled"))
	res, err := b.Execute(context.Background(), types.ErrorInput("boom"))
	require.NoError(t, err)
	assert.Equal(t, types.TextOutput("handled"), res.Output)

	last, ok := b.LastInput()
	require.True(t, ok)
	assert.True(t, last.IsError())
}

func TestMockBlock_WithFailures(t *testing.T) {
	boom := errors.New("boom")
	b := NewMockBlock().WithFailures(2, boom).WithOutput(types.StringOutput("ok"))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := b.Execute(ctx, types.EmptyInput())
		assert.ErrorIs(t, err, boom)
	}
	res, err := b.Execute(ctx, types.EmptyInput())
	require.NoError(t, err)
	assert.Equal(t, types.StringOutput("ok"), res.Output)

	b.Reset()
	assert.Zero(t, b.CallCount())
}

func TestMockBlock_WithStream(t *testing.T) {
	b := NewMockBlock().WithStream(types.StringOutput("1"), types.StringOutput("2"))
	res, err := b.Execute(context.Background(), types.EmptyInput())
	require.NoError(t, err)
	require.Equal(t, types.ResultRecurring, res.Kind)

	var got []types.BlockOutput
	for out := range res.Stream {
		got = append(got, out)
	}
	assert.Equal(t, []types.BlockOutput{types.StringOutput("1"), types.StringOutput("2")}, got)
}
