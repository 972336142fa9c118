package blocks

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/BaSui01/blockflow/types"
)

// =============================================================================
// combine
// =============================================================================

type combineBlock struct {
	keys []string
}

func newCombine(cfg CombineConfig) (types.Block, error) {
	return &combineBlock{keys: cfg.Keys}, nil
}

// Execute keys fan-in values by position. Missing positions are null; values
// beyond the configured keys are keyed by their index.
func (b *combineBlock) Execute(_ context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}
	outs := outputsFrom(in)
	obj := make(map[string]any, len(b.keys))
	for i, k := range b.keys {
		var v any
		if i < len(outs) {
			v = outs[i].JSONValue()
		}
		obj[k] = v
	}
	for i := len(b.keys); i < len(outs); i++ {
		obj[strconv.Itoa(i)] = outs[i].JSONValue()
	}
	return types.Once(types.JSONOutput(obj)), nil
}

// =============================================================================
// select_first
// =============================================================================

type selectFirstBlock struct {
	strategy string
}

func newSelectFirst(cfg SelectFirstConfig) (types.Block, error) {
	switch cfg.Strategy {
	case "":
		cfg.Strategy = StrategyFirst
	case StrategyFirst, StrategyLast, StrategyLatest:
	default:
		return nil, types.Errorf(types.ErrBuild, "select_first: unknown strategy %q", cfg.Strategy)
	}
	return &selectFirstBlock{strategy: cfg.Strategy}, nil
}

func (b *selectFirstBlock) Execute(_ context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}
	items, err := itemsFrom(TypeSelectFirst, in)
	if err != nil {
		return types.ExecutionResult{}, err
	}
	if len(items) == 0 {
		return types.ExecutionResult{}, types.NewError(types.ErrBlock, "select_first: list is empty")
	}

	var picked string
	switch b.strategy {
	case StrategyLast:
		picked = items[len(items)-1]
	case StrategyLatest:
		sorted := append([]string(nil), items...)
		sort.Strings(sorted)
		picked = sorted[len(sorted)-1]
	default:
		picked = items[0]
	}
	return types.Once(types.StringOutput(picked)), nil
}

// =============================================================================
// filter
// =============================================================================

type filterBlock struct {
	cfg FilterConfig
}

func newFilter(cfg FilterConfig) (types.Block, error) {
	switch cfg.Mode {
	case FilterContains, FilterEquals:
	case FilterFieldEquals:
		if cfg.Field == "" {
			return nil, types.NewError(types.ErrBuild, "filter: field_equals requires a field")
		}
	default:
		return nil, types.Errorf(types.ErrBuild, "filter: unknown mode %q", cfg.Mode)
	}
	return &filterBlock{cfg: cfg}, nil
}

func (b *filterBlock) Execute(_ context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}
	items, err := itemsFrom(TypeFilter, in)
	if err != nil {
		return types.ExecutionResult{}, err
	}
	kept := make([]string, 0, len(items))
	for _, item := range items {
		if b.matches(item) {
			kept = append(kept, item)
		}
	}
	return types.Once(types.ListOutput(kept)), nil
}

func (b *filterBlock) matches(item string) bool {
	switch b.cfg.Mode {
	case FilterContains:
		return strings.Contains(item, b.cfg.Value)
	case FilterEquals:
		return item == b.cfg.Value
	default:
		var obj map[string]any
		if err := json.Unmarshal([]byte(item), &obj); err != nil {
			return false
		}
		s, ok := obj[b.cfg.Field].(string)
		return ok && s == b.cfg.Value
	}
}
