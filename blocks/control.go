package blocks

import (
	"context"
	"strings"
	"text/template"
	"time"

	"github.com/BaSui01/blockflow/types"
)

// =============================================================================
// conditional
// =============================================================================

type conditionalBlock struct {
	cfg ConditionalConfig
}

func newConditional(cfg ConditionalConfig) (types.Block, error) {
	switch cfg.Operator {
	case "":
		cfg.Operator = OperatorEquals
	case OperatorEquals, OperatorContains:
	default:
		return nil, types.Errorf(types.ErrBuild, "conditional: unknown operator %q", cfg.Operator)
	}
	if cfg.Then == "" {
		cfg.Then = "then"
	}
	if cfg.Else == "" {
		cfg.Else = "else"
	}
	return &conditionalBlock{cfg: cfg}, nil
}

// Execute emits the then-branch label when the input matches. An upstream
// failure selects the else-branch instead of failing.
func (b *conditionalBlock) Execute(_ context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if in.IsError() {
		return types.Once(types.TextOutput(b.cfg.Else)), nil
	}

	s := b.comparable(in)
	var matched bool
	switch b.cfg.Operator {
	case OperatorContains:
		matched = strings.Contains(s, b.cfg.Value)
	default:
		matched = s == b.cfg.Value
	}
	if matched {
		return types.Once(types.TextOutput(b.cfg.Then)), nil
	}
	return types.Once(types.TextOutput(b.cfg.Else)), nil
}

func (b *conditionalBlock) comparable(in types.BlockInput) string {
	switch in.Kind {
	case types.KindMulti:
		return ""
	case types.KindJSON:
		if b.cfg.Field != "" {
			if obj, ok := in.Data.(map[string]any); ok {
				if v, ok := obj[b.cfg.Field]; ok {
					return jsonText(v)
				}
			}
		}
	}
	return in.Text()
}

// =============================================================================
// delay
// =============================================================================

type delayBlock struct {
	d time.Duration
}

func newDelay(cfg DelayConfig) (types.Block, error) {
	return &delayBlock{d: time.Duration(cfg.DurationMS) * time.Millisecond}, nil
}

func (b *delayBlock) Execute(ctx context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}
	if b.d > 0 {
		timer := time.NewTimer(b.d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return types.ExecutionResult{}, types.NewError(types.ErrBlock, "delay interrupted").WithCause(ctx.Err())
		case <-timer.C:
		}
	}
	return types.Once(passThrough(in)), nil
}

// =============================================================================
// template
// =============================================================================

type templateBlock struct {
	tmpl *template.Template
}

func newTemplate(cfg TemplateConfig) (types.Block, error) {
	if cfg.Template == "" {
		return nil, types.NewError(types.ErrBuild, "template: template must not be empty")
	}
	tmpl, err := template.New(TypeTemplate).Option("missingkey=zero").Parse(cfg.Template)
	if err != nil {
		return nil, types.NewError(types.ErrBuild, "template: parse failed").WithCause(err)
	}
	return &templateBlock{tmpl: tmpl}, nil
}

// Execute renders the template with .Input (the value tree) and .Text (its
// plain-text rendering).
func (b *templateBlock) Execute(_ context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}
	data := map[string]any{
		"Input": jsonValue(in),
		"Text":  in.Text(),
	}
	var sb strings.Builder
	if err := b.tmpl.Execute(&sb, data); err != nil {
		return types.ExecutionResult{}, types.NewError(types.ErrBlock, "template: render failed").WithCause(err)
	}
	return types.Once(types.TextOutput(sb.String())), nil
}
