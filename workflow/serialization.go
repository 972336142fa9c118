package workflow

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed definition.schema.json
var definitionSchemaJSON string

var (
	definitionSchemaOnce sync.Once
	definitionSchema     *jsonschema.Schema
	definitionSchemaErr  error
)

// DefinitionSchema returns the compiled JSON schema for serialized definitions.
func DefinitionSchema() (*jsonschema.Schema, error) {
	definitionSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("inmemory://definition.schema.json", strings.NewReader(definitionSchemaJSON)); err != nil {
			definitionSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		definitionSchema, definitionSchemaErr = compiler.Compile("inmemory://definition.schema.json")
	})
	return definitionSchema, definitionSchemaErr
}

// validateDocument checks a decoded document tree against the schema.
func validateDocument(doc any) error {
	schema, err := DefinitionSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	// Normalize YAML trees (int, map[string]interface{}) into JSON types.
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("normalize document: %w", err)
	}
	var normalized any
	if err := json.Unmarshal(data, &normalized); err != nil {
		return fmt.Errorf("normalize document: %w", err)
	}
	if err := schema.Validate(normalized); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// ToJSON converts a Definition to an indented JSON string
func (d *Definition) ToJSON() (string, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	return string(data), nil
}

// ToYAML converts a Definition to a YAML string
func (d *Definition) ToYAML() (string, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to marshal to YAML: %w", err)
	}
	return string(data), nil
}

// FromJSON creates a Definition from a JSON string
func FromJSON(jsonStr string) (*Definition, error) {
	var doc any
	if err := json.Unmarshal([]byte(jsonStr), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal from JSON: %w", err)
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	var def Definition
	if err := json.Unmarshal([]byte(jsonStr), &def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal from JSON: %w", err)
	}

	if err := ValidateDefinition(&def); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &def, nil
}

// FromYAML creates a Definition from a YAML string
func FromYAML(yamlStr string) (*Definition, error) {
	var doc any
	if err := yaml.Unmarshal([]byte(yamlStr), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal from YAML: %w", err)
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	var def Definition
	if err := yaml.Unmarshal([]byte(yamlStr), &def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal from YAML: %w", err)
	}

	if err := ValidateDefinition(&def); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &def, nil
}

// LoadDefinitionFile loads a definition, choosing the format by extension
// (.json, .yaml, .yml).
func LoadDefinitionFile(filename string) (*Definition, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return FromJSON(string(data))
	case ".yaml", ".yml":
		return FromYAML(string(data))
	default:
		return nil, fmt.Errorf("unsupported definition format: %s", filename)
	}
}

// SaveToFile writes the definition, choosing the format by extension.
func (d *Definition) SaveToFile(filename string) error {
	var (
		out string
		err error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		out, err = d.ToJSON()
	case ".yaml", ".yml":
		out, err = d.ToYAML()
	default:
		return fmt.Errorf("unsupported definition format: %s", filename)
	}
	if err != nil {
		return fmt.Errorf("marshal definition: %w", err)
	}

	if err := os.WriteFile(filename, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// ValidateDefinition validates a loaded Definition. A definition without
// nodes is valid; running it fails with NO_SINK_NODE.
func ValidateDefinition(def *Definition) error {
	if def == nil {
		return fmt.Errorf("definition is nil")
	}
	for id := range def.Nodes {
		if id == "" {
			return fmt.Errorf("node ID is required")
		}
	}
	return def.Validate()
}
