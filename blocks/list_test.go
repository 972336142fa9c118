package blocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/blockflow/types"
)

func TestCombine(t *testing.T) {
	block := build(t, CombineConfig{Keys: []string{"name", "age", "city"}})

	t.Run("positional with missing", func(t *testing.T) {
		out := once(t, block, types.MultiInput(types.StringOutput("ann"), types.JSONOutput(30.0)))
		assert.Equal(t, types.JSONOutput(map[string]any{
			"name": "ann",
			"age":  30.0,
			"city": nil,
		}), out)
	})

	t.Run("extras keyed by index", func(t *testing.T) {
		out := once(t, block, types.MultiInput(
			types.StringOutput("a"), types.StringOutput("b"), types.StringOutput("c"), types.StringOutput("d"),
		))
		assert.Equal(t, types.JSONOutput(map[string]any{
			"name": "a", "age": "b", "city": "c", "3": "d",
		}), out)
	})

	t.Run("single value", func(t *testing.T) {
		out := once(t, block, strIn("solo"))
		assert.Equal(t, "solo", out.Data.(map[string]any)["name"])
	})
}

func TestSelectFirst(t *testing.T) {
	tests := []struct {
		strategy string
		want     string
	}{
		{strategy: "", want: "b"},
		{strategy: StrategyFirst, want: "b"},
		{strategy: StrategyLast, want: "a"},
		{strategy: StrategyLatest, want: "c"},
	}
	for _, tt := range tests {
		t.Run("strategy_"+tt.strategy, func(t *testing.T) {
			block := build(t, SelectFirstConfig{Strategy: tt.strategy})
			assert.Equal(t, types.StringOutput(tt.want), once(t, block, listIn("b", "c", "a")))
		})
	}
}

func TestSelectFirst_Errors(t *testing.T) {
	_, err := buildErr(t, SelectFirstConfig{Strategy: "random"})
	require.Error(t, err)
	assert.True(t, types.IsBuildError(err))

	block := build(t, SelectFirstConfig{})
	_, err = block.Execute(context.Background(), listIn())
	require.Error(t, err)
	assert.Equal(t, types.ErrBlock, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), "list is empty")
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		cfg  FilterConfig
		in   types.BlockInput
		want []string
	}{
		{
			name: "contains",
			cfg:  FilterConfig{Mode: FilterContains, Value: "go"},
			in:   listIn("golang", "python", "gopher"),
			want: []string{"golang", "gopher"},
		},
		{
			name: "equals",
			cfg:  FilterConfig{Mode: FilterEquals, Value: "python"},
			in:   listIn("golang", "python"),
			want: []string{"python"},
		},
		{
			name: "field equals over json array",
			cfg:  FilterConfig{Mode: FilterFieldEquals, Field: "status", Value: "ok"},
			in: jsonIn([]any{
				map[string]any{"status": "ok", "id": 1.0},
				map[string]any{"status": "fail", "id": 2.0},
				"not an object",
			}),
			want: []string{`{"id":1,"status":"ok"}`},
		},
		{
			name: "nothing kept",
			cfg:  FilterConfig{Mode: FilterEquals, Value: "zzz"},
			in:   listIn("a"),
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block := build(t, tt.cfg)
			assert.Equal(t, types.ListOutput(tt.want), once(t, block, tt.in))
		})
	}
}

func TestFilter_BuildErrors(t *testing.T) {
	for _, cfg := range []FilterConfig{
		{Mode: "regex"},
		{Mode: FilterFieldEquals},
	} {
		_, err := buildErr(t, cfg)
		require.Error(t, err)
		assert.Equal(t, types.ErrBuild, types.GetErrorCode(err))
	}
}
