package blocks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/BaSui01/blockflow/types"
)

const inlineSchemaURL = "inmemory://json_validate.schema.json"

type jsonValidateBlock struct {
	schema *jsonschema.Schema
}

func newJSONValidate(cfg JSONValidateConfig) (types.Block, error) {
	if cfg.Schema == nil {
		return nil, types.NewError(types.ErrBuild, "json_validate requires a schema")
	}

	var doc []byte
	if s, ok := cfg.Schema.(string); ok {
		doc = []byte(s)
	} else {
		data, err := json.Marshal(cfg.Schema)
		if err != nil {
			return nil, types.NewError(types.ErrBuild, "json_validate: encode schema").WithCause(err)
		}
		doc = data
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(inlineSchemaURL, bytes.NewReader(doc)); err != nil {
		return nil, types.NewError(types.ErrBuild, "json_validate: load schema").WithCause(err)
	}
	schema, err := compiler.Compile(inlineSchemaURL)
	if err != nil {
		return nil, types.NewError(types.ErrBuild, "json_validate: compile schema").WithCause(err)
	}
	return &jsonValidateBlock{schema: schema}, nil
}

// Execute passes a valid document through as Json. JSON text inputs are
// parsed first.
func (b *jsonValidateBlock) Execute(_ context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}

	var raw []byte
	switch in.Kind {
	case types.KindString, types.KindText:
		raw = []byte(in.Value)
	case types.KindJSON, types.KindList, types.KindMulti:
		data, err := json.Marshal(jsonValue(in))
		if err != nil {
			return types.ExecutionResult{}, types.NewError(types.ErrBlock, "json_validate: encode input").WithCause(err)
		}
		raw = data
	default:
		return types.ExecutionResult{}, types.InputTypeMismatch(TypeJSONValidate, "json", in.Kind)
	}

	// Numbers stay json.Number so integer keywords validate exactly.
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return types.ExecutionResult{}, types.NewError(types.ErrBlock, "json_validate: input is not valid JSON").WithCause(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return types.ExecutionResult{}, types.NewError(types.ErrBlock, "json_validate: input is not valid JSON: trailing data after document")
	}
	if err := b.schema.Validate(doc); err != nil {
		return types.ExecutionResult{}, types.NewError(types.ErrBlock, "json_validate: document does not match schema").WithCause(err)
	}

	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return types.ExecutionResult{}, types.NewError(types.ErrBlock, "json_validate: decode input").WithCause(err)
	}
	return types.Once(types.JSONOutput(out)), nil
}
