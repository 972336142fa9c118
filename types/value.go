package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValueKind identifies the shape of a value exchanged across an edge.
type ValueKind string

const (
	KindEmpty  ValueKind = "empty"
	KindString ValueKind = "string"
	KindText   ValueKind = "text"
	KindJSON   ValueKind = "json"
	KindList   ValueKind = "list"

	// Input-only kinds, constructed by the runtime.
	KindMulti ValueKind = "multi"
	KindError ValueKind = "error"
)

// BlockOutput is a value produced by a block. It never carries Multi or Error.
type BlockOutput struct {
	Kind  ValueKind
	Value string   // String, Text
	Data  any      // Json
	Items []string // List
}

// EmptyOutput returns the Empty value.
func EmptyOutput() BlockOutput { return BlockOutput{Kind: KindEmpty} }

// StringOutput returns a raw, equality-comparable string value.
func StringOutput(s string) BlockOutput { return BlockOutput{Kind: KindString, Value: s} }

// TextOutput returns human-facing display text.
func TextOutput(s string) BlockOutput { return BlockOutput{Kind: KindText, Value: s} }

// JSONOutput returns a structured value tree.
func JSONOutput(v any) BlockOutput { return BlockOutput{Kind: KindJSON, Data: v} }

// ListOutput returns an ordered sequence of strings.
func ListOutput(items []string) BlockOutput {
	if items == nil {
		items = []string{}
	}
	return BlockOutput{Kind: KindList, Items: items}
}

// IsEmpty reports whether the output is Empty. The zero value counts as Empty.
func (o BlockOutput) IsEmpty() bool {
	return o.Kind == KindEmpty || o.Kind == ""
}

// Text renders the value as plain text.
func (o BlockOutput) Text() string {
	switch o.Kind {
	case KindString, KindText:
		return o.Value
	case KindJSON:
		if s, ok := o.Data.(string); ok {
			return s
		}
		data, err := json.Marshal(o.Data)
		if err != nil {
			return fmt.Sprintf("%v", o.Data)
		}
		return string(data)
	case KindList:
		return strings.Join(o.Items, "\n")
	default:
		return ""
	}
}

// JSONValue converts the value into a JSON-compatible tree.
func (o BlockOutput) JSONValue() any {
	switch o.Kind {
	case KindString, KindText:
		return o.Value
	case KindJSON:
		return o.Data
	case KindList:
		items := make([]any, len(o.Items))
		for i, item := range o.Items {
			items[i] = item
		}
		return items
	default:
		return nil
	}
}

// BlockInput is the value handed to a block. Besides every BlockOutput shape it
// can carry Multi (fan-in) and Error (a propagated upstream failure).
type BlockInput struct {
	Kind    ValueKind
	Value   string
	Data    any
	Items   []string
	Outputs []BlockOutput // Multi
	Message string        // Error
}

// EmptyInput returns the Empty input.
func EmptyInput() BlockInput { return BlockInput{Kind: KindEmpty} }

// InputOf lifts a produced output into an input.
func InputOf(o BlockOutput) BlockInput {
	if o.Kind == "" {
		o.Kind = KindEmpty
	}
	return BlockInput{Kind: o.Kind, Value: o.Value, Data: o.Data, Items: o.Items}
}

// MultiInput builds a fan-in input. Order is preserved.
func MultiInput(outputs ...BlockOutput) BlockInput {
	if outputs == nil {
		outputs = []BlockOutput{}
	}
	return BlockInput{Kind: KindMulti, Outputs: outputs}
}

// ErrorInput carries an upstream failure to an error handler.
func ErrorInput(message string) BlockInput {
	return BlockInput{Kind: KindError, Message: message}
}

// IsEmpty reports whether the input is Empty. The zero value counts as Empty.
func (in BlockInput) IsEmpty() bool {
	return in.Kind == KindEmpty || in.Kind == ""
}

// IsError reports whether the input carries an upstream failure.
func (in BlockInput) IsError() bool {
	return in.Kind == KindError
}

// Output converts a single-valued input back into an output. It returns false
// for Multi and Error inputs.
func (in BlockInput) Output() (BlockOutput, bool) {
	switch in.Kind {
	case KindMulti, KindError:
		return BlockOutput{}, false
	case "":
		return EmptyOutput(), true
	default:
		return BlockOutput{Kind: in.Kind, Value: in.Value, Data: in.Data, Items: in.Items}, true
	}
}

// Text renders the input as plain text. Multi inputs are joined with newlines.
func (in BlockInput) Text() string {
	switch in.Kind {
	case KindMulti:
		parts := make([]string, 0, len(in.Outputs))
		for _, o := range in.Outputs {
			parts = append(parts, o.Text())
		}
		return strings.Join(parts, "\n")
	case KindError:
		return in.Message
	default:
		out, _ := in.Output()
		return out.Text()
	}
}

// ErrorFromInput returns the upstream failure carried by an Error input, or nil.
// Blocks call it first so an Error input short-circuits.
func ErrorFromInput(in BlockInput) error {
	if in.Kind != KindError {
		return nil
	}
	return NewError(ErrBlock, in.Message)
}

// =============================================================================
// Serialization
// =============================================================================

type wireValue struct {
	Type ValueKind       `json:"type" yaml:"type"`
	V    json.RawMessage `json:"v,omitempty" yaml:"-"`
}

type yamlValue struct {
	Type ValueKind `yaml:"type"`
	V    any       `yaml:"v,omitempty"`
}

// MarshalJSON encodes the output as {"type": ..., "v": ...}.
func (o BlockOutput) MarshalJSON() ([]byte, error) {
	kind := o.Kind
	if kind == "" {
		kind = KindEmpty
	}
	payload := map[string]any{"type": kind}
	switch kind {
	case KindString, KindText:
		payload["v"] = o.Value
	case KindJSON:
		payload["v"] = o.Data
	case KindList:
		payload["v"] = o.Items
	case KindEmpty:
	default:
		return nil, fmt.Errorf("cannot marshal output of kind %q", kind)
	}
	return json.Marshal(payload)
}

// UnmarshalJSON decodes the tagged representation.
func (o *BlockOutput) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to unmarshal BlockOutput: %w", err)
	}
	out, err := outputFromWire(w.Type, func(v any) error {
		if len(w.V) == 0 {
			return nil
		}
		return json.Unmarshal(w.V, v)
	})
	if err != nil {
		return err
	}
	*o = out
	return nil
}

// MarshalYAML encodes the output with the same tagged layout as JSON.
func (o BlockOutput) MarshalYAML() (interface{}, error) {
	kind := o.Kind
	if kind == "" {
		kind = KindEmpty
	}
	return yamlValue{Type: kind, V: o.JSONValue()}, nil
}

// UnmarshalYAML decodes the tagged representation.
func (o *BlockOutput) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Type ValueKind `yaml:"type"`
		V    yaml.Node `yaml:"v"`
	}
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("failed to unmarshal BlockOutput: %w", err)
	}
	out, err := outputFromWire(raw.Type, func(v any) error {
		if raw.V.Kind == 0 {
			return nil
		}
		return raw.V.Decode(v)
	})
	if err != nil {
		return err
	}
	*o = out
	return nil
}

func outputFromWire(kind ValueKind, decode func(v any) error) (BlockOutput, error) {
	switch kind {
	case KindEmpty, "":
		return EmptyOutput(), nil
	case KindString, KindText:
		var s string
		if err := decode(&s); err != nil {
			return BlockOutput{}, fmt.Errorf("decode %s value: %w", kind, err)
		}
		return BlockOutput{Kind: kind, Value: s}, nil
	case KindJSON:
		var v any
		if err := decode(&v); err != nil {
			return BlockOutput{}, fmt.Errorf("decode json value: %w", err)
		}
		return JSONOutput(v), nil
	case KindList:
		var items []string
		if err := decode(&items); err != nil {
			return BlockOutput{}, fmt.Errorf("decode list value: %w", err)
		}
		return ListOutput(items), nil
	default:
		return BlockOutput{}, fmt.Errorf("unknown output type %q", kind)
	}
}

// MarshalJSON encodes the input. Multi nests outputs, Error carries the message.
func (in BlockInput) MarshalJSON() ([]byte, error) {
	switch in.Kind {
	case KindMulti:
		return json.Marshal(map[string]any{"type": KindMulti, "v": in.Outputs})
	case KindError:
		return json.Marshal(map[string]any{"type": KindError, "v": in.Message})
	default:
		out, _ := in.Output()
		return json.Marshal(out)
	}
}

// UnmarshalJSON decodes the tagged representation.
func (in *BlockInput) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to unmarshal BlockInput: %w", err)
	}
	switch w.Type {
	case KindMulti:
		var outs []BlockOutput
		if len(w.V) > 0 {
			if err := json.Unmarshal(w.V, &outs); err != nil {
				return fmt.Errorf("decode multi value: %w", err)
			}
		}
		*in = MultiInput(outs...)
	case KindError:
		var msg string
		if len(w.V) > 0 {
			if err := json.Unmarshal(w.V, &msg); err != nil {
				return fmt.Errorf("decode error value: %w", err)
			}
		}
		*in = ErrorInput(msg)
	default:
		var out BlockOutput
		if err := out.UnmarshalJSON(data); err != nil {
			return err
		}
		*in = InputOf(out)
	}
	return nil
}
