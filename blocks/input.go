package blocks

import (
	"encoding/json"
	"fmt"

	"github.com/BaSui01/blockflow/types"
)

// scalarText returns the text of a String, Text or JSON-string input.
func scalarText(in types.BlockInput) (string, bool) {
	switch in.Kind {
	case types.KindString, types.KindText:
		return in.Value, true
	case types.KindJSON:
		s, ok := in.Data.(string)
		return s, ok
	default:
		return "", false
	}
}

// pathFrom extracts a filesystem path or URL carried by the input: a
// non-empty string, a JSON string, or a JSON object with a "path" field.
func pathFrom(in types.BlockInput, field string) (string, bool) {
	if s, ok := scalarText(in); ok {
		return s, s != ""
	}
	if in.Kind == types.KindJSON {
		if obj, ok := in.Data.(map[string]any); ok {
			if s, ok := obj[field].(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// objectFrom reads a JSON object from a Json input or from JSON text. Empty
// is treated as an empty object.
func objectFrom(block string, in types.BlockInput) (map[string]any, error) {
	var v any
	switch in.Kind {
	case types.KindJSON:
		v = in.Data
	case types.KindString, types.KindText:
		if err := json.Unmarshal([]byte(in.Value), &v); err != nil {
			return nil, types.Errorf(types.ErrBlock, "%s: input is not valid JSON", block).WithCause(err)
		}
	case types.KindEmpty, "":
		return map[string]any{}, nil
	default:
		return nil, types.InputTypeMismatch(block, "json object", in.Kind)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, types.Errorf(types.ErrInputTypeMismatch, "%s expected a JSON object, got %T", block, v)
	}
	return obj, nil
}

// itemsFrom flattens list-like inputs into strings. Scalars become one item,
// Empty becomes none.
func itemsFrom(block string, in types.BlockInput) ([]string, error) {
	switch in.Kind {
	case types.KindList:
		return append([]string(nil), in.Items...), nil
	case types.KindMulti:
		items := make([]string, 0, len(in.Outputs))
		for _, o := range in.Outputs {
			items = append(items, o.Text())
		}
		return items, nil
	case types.KindJSON:
		arr, ok := in.Data.([]any)
		if !ok {
			out, _ := in.Output()
			return []string{out.Text()}, nil
		}
		items := make([]string, 0, len(arr))
		for _, v := range arr {
			items = append(items, jsonText(v))
		}
		return items, nil
	case types.KindString, types.KindText:
		return []string{in.Value}, nil
	case types.KindEmpty, "":
		return nil, nil
	default:
		return nil, types.InputTypeMismatch(block, "list", in.Kind)
	}
}

// outputsFrom returns the outputs a fan-in carries; a single value becomes a
// one-element slice.
func outputsFrom(in types.BlockInput) []types.BlockOutput {
	if in.Kind == types.KindMulti {
		return in.Outputs
	}
	if in.IsEmpty() {
		return nil
	}
	out, _ := in.Output()
	return []types.BlockOutput{out}
}

// passThrough turns the input back into an output. A fan-in becomes a JSON
// array of its values.
func passThrough(in types.BlockInput) types.BlockOutput {
	if in.Kind == types.KindMulti {
		items := make([]any, len(in.Outputs))
		for i, o := range in.Outputs {
			items[i] = o.JSONValue()
		}
		return types.JSONOutput(items)
	}
	out, _ := in.Output()
	return out
}

// jsonValue returns the input as a JSON-compatible tree.
func jsonValue(in types.BlockInput) any {
	return passThrough(in).JSONValue()
}

func jsonText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
