package blocks

import (
	"context"
	"strings"

	"github.com/BaSui01/blockflow/types"
)

// =============================================================================
// split_by_keys
// =============================================================================

type splitByKeysBlock struct {
	keys []string
}

func newSplitByKeys(cfg SplitByKeysConfig) (types.Block, error) {
	if len(cfg.Keys) == 0 {
		return nil, types.NewError(types.ErrBuild, "split_by_keys requires at least one key")
	}
	return &splitByKeysBlock{keys: cfg.Keys}, nil
}

// Execute emits one Json output per configured key, in key order. Missing
// keys yield null so positions stay aligned with the outgoing edges.
func (b *splitByKeysBlock) Execute(_ context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}
	obj, err := objectFrom(TypeSplitByKeys, in)
	if err != nil {
		return types.ExecutionResult{}, err
	}
	outs := make([]types.BlockOutput, len(b.keys))
	for i, k := range b.keys {
		outs[i] = types.JSONOutput(obj[k])
	}
	return types.Multiple(outs...), nil
}

// =============================================================================
// split_lines
// =============================================================================

type splitLinesBlock struct {
	delimiter string
	trimEach  bool
	skipEmpty bool
}

func newSplitLines(cfg SplitLinesConfig) (types.Block, error) {
	b := &splitLinesBlock{delimiter: cfg.Delimiter, trimEach: true, skipEmpty: true}
	if b.delimiter == "" {
		b.delimiter = "\n"
	}
	if cfg.TrimEach != nil {
		b.trimEach = *cfg.TrimEach
	}
	if cfg.SkipEmpty != nil {
		b.skipEmpty = *cfg.SkipEmpty
	}
	return b, nil
}

func (b *splitLinesBlock) Execute(_ context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}
	text, ok := scalarText(in)
	if !ok && !in.IsEmpty() {
		return types.ExecutionResult{}, types.InputTypeMismatch(TypeSplitLines, "string or text", in.Kind)
	}

	var outs []types.BlockOutput
	for _, line := range strings.Split(text, b.delimiter) {
		if b.trimEach {
			line = strings.TrimSpace(line)
		}
		if b.skipEmpty && line == "" {
			continue
		}
		outs = append(outs, types.StringOutput(line))
	}
	return types.Multiple(outs...), nil
}

// =============================================================================
// split
// =============================================================================

type splitBlock struct {
	separator string
}

func newSplit(cfg SplitConfig) (types.Block, error) {
	sep := cfg.Separator
	if sep == "" {
		sep = ","
	}
	return &splitBlock{separator: sep}, nil
}

// Execute splits at the first separator into {"item": head, "rest": tail}.
func (b *splitBlock) Execute(_ context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}
	text, ok := scalarText(in)
	if !ok && !in.IsEmpty() {
		return types.ExecutionResult{}, types.InputTypeMismatch(TypeSplit, "string or text", in.Kind)
	}
	item, rest, _ := strings.Cut(text, b.separator)
	return types.Once(types.JSONOutput(map[string]any{"item": item, "rest": rest})), nil
}
