package workflow

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/blockflow/retry"
)

// ChildWorkflowType is the block type of nested workflow nodes. The runtime
// executes these itself; they are never resolved through the registry.
const ChildWorkflowType = "child_workflow"

// Payload is a strongly-typed built-in block configuration.
type Payload interface {
	BlockType() string
}

// ChildWorkflowConfig nests a complete definition inside a node.
type ChildWorkflowConfig struct {
	Definition  *Definition   `json:"definition" yaml:"definition"`
	TimeoutMS   uint64        `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
	RetryPolicy *retry.Policy `json:"retry_policy,omitempty" yaml:"retry_policy,omitempty"`
}

// BlockType implements Payload.
func (ChildWorkflowConfig) BlockType() string { return ChildWorkflowType }

// BlockConfig identifies a block's type and carries its configuration. It is
// either a typed built-in payload, a child workflow, or a custom type id with
// an untyped payload tree.
type BlockConfig struct {
	typeID  string
	payload any
}

// NewBlockConfig wraps a typed built-in payload.
func NewBlockConfig(p Payload) BlockConfig {
	if p == nil {
		return BlockConfig{}
	}
	return BlockConfig{typeID: p.BlockType(), payload: p}
}

// CustomConfig builds a config for an externally registered block type.
// payload may be any object/array/scalar tree, or nil.
func CustomConfig(typeID string, payload any) BlockConfig {
	return BlockConfig{typeID: typeID, payload: payload}
}

// NewChildWorkflow builds a config that runs def as a nested workflow.
func NewChildWorkflow(def *Definition) BlockConfig {
	return NewBlockConfig(&ChildWorkflowConfig{Definition: def})
}

// BlockType returns the registry type id.
func (c BlockConfig) BlockType() string {
	return c.typeID
}

// Payload returns the raw payload: a typed struct, a decoded tree, or nil.
func (c BlockConfig) Payload() any {
	return c.payload
}

// ChildWorkflow returns the nested workflow config, or nil for other kinds.
func (c BlockConfig) ChildWorkflow() *ChildWorkflowConfig {
	switch p := c.payload.(type) {
	case *ChildWorkflowConfig:
		return p
	case ChildWorkflowConfig:
		return &p
	default:
		return nil
	}
}

// DecodePayload copies the payload into v, which must be a pointer. Typed and
// deserialized payloads are both handled by round-tripping through JSON.
func (c BlockConfig) DecodePayload(v any) error {
	if c.payload == nil {
		return nil
	}
	data, err := json.Marshal(c.payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", c.typeID, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", c.typeID, err)
	}
	return nil
}

// =============================================================================
// Serialization
// =============================================================================

type blockConfigJSON struct {
	Type   string          `json:"type"`
	Config json.RawMessage `json:"config,omitempty"`
}

// MarshalJSON encodes the config as {"type": ..., "config": ...}.
func (c BlockConfig) MarshalJSON() ([]byte, error) {
	out := blockConfigJSON{Type: c.typeID}
	if c.payload != nil {
		data, err := json.Marshal(c.payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s config: %w", c.typeID, err)
		}
		out.Config = data
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a config. Child workflows decode into
// ChildWorkflowConfig; every other type keeps an untyped tree.
func (c *BlockConfig) UnmarshalJSON(data []byte) error {
	var in blockConfigJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("failed to unmarshal BlockConfig: %w", err)
	}
	c.typeID = in.Type
	c.payload = nil
	if len(in.Config) == 0 || string(in.Config) == "null" {
		return nil
	}
	if in.Type == ChildWorkflowType {
		var child ChildWorkflowConfig
		if err := json.Unmarshal(in.Config, &child); err != nil {
			return fmt.Errorf("failed to unmarshal child workflow: %w", err)
		}
		c.payload = &child
		return nil
	}
	var tree any
	if err := json.Unmarshal(in.Config, &tree); err != nil {
		return fmt.Errorf("failed to unmarshal %s config: %w", in.Type, err)
	}
	c.payload = tree
	return nil
}

type blockConfigYAML struct {
	Type   string `yaml:"type"`
	Config any    `yaml:"config,omitempty"`
}

// MarshalYAML encodes the config with the same layout as JSON.
func (c BlockConfig) MarshalYAML() (interface{}, error) {
	return blockConfigYAML{Type: c.typeID, Config: c.payload}, nil
}

// UnmarshalYAML decodes a config from YAML.
func (c *BlockConfig) UnmarshalYAML(node *yaml.Node) error {
	var in struct {
		Type   string    `yaml:"type"`
		Config yaml.Node `yaml:"config"`
	}
	if err := node.Decode(&in); err != nil {
		return fmt.Errorf("failed to unmarshal BlockConfig: %w", err)
	}
	c.typeID = in.Type
	c.payload = nil
	if in.Config.Kind == 0 {
		return nil
	}
	if in.Type == ChildWorkflowType {
		var child ChildWorkflowConfig
		if err := in.Config.Decode(&child); err != nil {
			return fmt.Errorf("failed to unmarshal child workflow: %w", err)
		}
		c.payload = &child
		return nil
	}
	var tree any
	if err := in.Config.Decode(&tree); err != nil {
		return fmt.Errorf("failed to unmarshal %s config: %w", in.Type, err)
	}
	c.payload = tree
	return nil
}
