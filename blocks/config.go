package blocks

import (
	"github.com/BaSui01/blockflow/retry"
)

// Built-in block type ids.
const (
	TypeCustomTransform = "custom_transform"
	TypeEcho            = "echo"
	TypeMerge           = "merge"
	TypeSplit           = "split"
	TypeSplitByKeys     = "split_by_keys"
	TypeSplitLines      = "split_lines"
	TypeCombine         = "combine"
	TypeSelectFirst     = "select_first"
	TypeFilter          = "filter"
	TypeConditional     = "conditional"
	TypeDelay           = "delay"
	TypeTemplate        = "template"
	TypeFileRead        = "file_read"
	TypeFileWrite       = "file_write"
	TypeListDirectory   = "list_directory"
	TypeCron            = "cron"
	TypeIntervalTrigger = "interval_trigger"
	TypeHTTPRequest     = "http_request"
	TypeJSONValidate    = "json_validate"
	TypeCacheGet        = "cache_get"
	TypeCacheSet        = "cache_set"
	TypeSQLQuery        = "sql_query"
	TypeNATSPublish     = "nats_publish"
	TypeNATSSubscribe   = "nats_subscribe"
	TypeWebSocketListen = "websocket_listen"
	TypeJWTSign         = "jwt_sign"
	TypeJWTVerify       = "jwt_verify"
)

// CustomTransformConfig configures the identity transform.
type CustomTransformConfig struct{}

// BlockType implements workflow.Payload.
func (CustomTransformConfig) BlockType() string { return TypeCustomTransform }

// EchoConfig configures echo.
type EchoConfig struct{}

// BlockType implements workflow.Payload.
func (EchoConfig) BlockType() string { return TypeEcho }

// MergeConfig joins a fan-in into one Text. Separator defaults to a newline.
type MergeConfig struct {
	Separator string `json:"separator,omitempty" yaml:"separator,omitempty"`
}

// BlockType implements workflow.Payload.
func (MergeConfig) BlockType() string { return TypeMerge }

// SplitConfig splits a string at the first Separator (default ",").
type SplitConfig struct {
	Separator string `json:"separator,omitempty" yaml:"separator,omitempty"`
}

// BlockType implements workflow.Payload.
func (SplitConfig) BlockType() string { return TypeSplit }

// SplitByKeysConfig fans a JSON object out, one output per key.
type SplitByKeysConfig struct {
	Keys []string `json:"keys" yaml:"keys"`
}

// BlockType implements workflow.Payload.
func (SplitByKeysConfig) BlockType() string { return TypeSplitByKeys }

// SplitLinesConfig fans text out by delimiter. TrimEach and SkipEmpty default
// to true when unset.
type SplitLinesConfig struct {
	Delimiter string `json:"delimiter,omitempty" yaml:"delimiter,omitempty"`
	TrimEach  *bool  `json:"trim_each,omitempty" yaml:"trim_each,omitempty"`
	SkipEmpty *bool  `json:"skip_empty,omitempty" yaml:"skip_empty,omitempty"`
}

// BlockType implements workflow.Payload.
func (SplitLinesConfig) BlockType() string { return TypeSplitLines }

// CombineConfig keys a fan-in into one JSON object.
type CombineConfig struct {
	Keys []string `json:"keys" yaml:"keys"`
}

// BlockType implements workflow.Payload.
func (CombineConfig) BlockType() string { return TypeCombine }

// Selection strategies for select_first.
const (
	StrategyFirst  = "first"
	StrategyLast   = "last"
	StrategyLatest = "latest" // lexicographically greatest
)

// SelectFirstConfig picks one item from a list.
type SelectFirstConfig struct {
	Strategy string `json:"strategy,omitempty" yaml:"strategy,omitempty"`
}

// BlockType implements workflow.Payload.
func (SelectFirstConfig) BlockType() string { return TypeSelectFirst }

// Filter modes.
const (
	FilterContains    = "contains"
	FilterEquals      = "equals"
	FilterFieldEquals = "field_equals"
)

// FilterConfig keeps the items matching Mode.
type FilterConfig struct {
	Mode  string `json:"mode" yaml:"mode"`
	Value string `json:"value" yaml:"value"`
	Field string `json:"field,omitempty" yaml:"field,omitempty"`
}

// BlockType implements workflow.Payload.
func (FilterConfig) BlockType() string { return TypeFilter }

// Conditional operators.
const (
	OperatorEquals   = "equals"
	OperatorContains = "contains"
)

// ConditionalConfig emits Then or Else depending on the input.
type ConditionalConfig struct {
	Field    string `json:"field,omitempty" yaml:"field,omitempty"`
	Operator string `json:"operator,omitempty" yaml:"operator,omitempty"`
	Value    string `json:"value" yaml:"value"`
	Then     string `json:"then,omitempty" yaml:"then,omitempty"`
	Else     string `json:"else,omitempty" yaml:"else,omitempty"`
}

// BlockType implements workflow.Payload.
func (ConditionalConfig) BlockType() string { return TypeConditional }

// DelayConfig holds the input for DurationMS before passing it on.
type DelayConfig struct {
	DurationMS uint64 `json:"duration_ms" yaml:"duration_ms"`
}

// BlockType implements workflow.Payload.
func (DelayConfig) BlockType() string { return TypeDelay }

// TemplateConfig renders a text/template against the input.
type TemplateConfig struct {
	Template string `json:"template" yaml:"template"`
}

// BlockType implements workflow.Payload.
func (TemplateConfig) BlockType() string { return TypeTemplate }

// FileReadConfig reads a file. Path overrides the path carried by the input.
type FileReadConfig struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// BlockType implements workflow.Payload.
func (FileReadConfig) BlockType() string { return TypeFileRead }

// FileWriteConfig writes the input to Path.
type FileWriteConfig struct {
	Path   string `json:"path" yaml:"path"`
	Append bool   `json:"append,omitempty" yaml:"append,omitempty"`
}

// BlockType implements workflow.Payload.
func (FileWriteConfig) BlockType() string { return TypeFileWrite }

// ListDirectoryConfig lists a directory, optionally filtered by a glob Pattern.
type ListDirectoryConfig struct {
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// BlockType implements workflow.Payload.
func (ListDirectoryConfig) BlockType() string { return TypeListDirectory }

// CronConfig fires on a cron schedule until the run ends.
type CronConfig struct {
	Schedule string `json:"schedule" yaml:"schedule"`
}

// BlockType implements workflow.Payload.
func (CronConfig) BlockType() string { return TypeCron }

// IntervalTriggerConfig fires every IntervalMS until the run ends.
type IntervalTriggerConfig struct {
	IntervalMS uint64 `json:"interval_ms" yaml:"interval_ms"`
}

// BlockType implements workflow.Payload.
func (IntervalTriggerConfig) BlockType() string { return TypeIntervalTrigger }

// HTTPRequestConfig performs one HTTP request per activation.
type HTTPRequestConfig struct {
	URL       string            `json:"url,omitempty" yaml:"url,omitempty"`
	Method    string            `json:"method,omitempty" yaml:"method,omitempty"`
	Headers   map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body      string            `json:"body,omitempty" yaml:"body,omitempty"`
	TimeoutMS uint64            `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
	Retry     *retry.Policy     `json:"retry,omitempty" yaml:"retry,omitempty"`
	// RateLimit caps requests per second across activations; 0 disables it.
	RateLimit float64 `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
}

// BlockType implements workflow.Payload.
func (HTTPRequestConfig) BlockType() string { return TypeHTTPRequest }

// JSONValidateConfig validates the input against a JSON schema document.
type JSONValidateConfig struct {
	Schema any `json:"schema" yaml:"schema"`
}

// BlockType implements workflow.Payload.
func (JSONValidateConfig) BlockType() string { return TypeJSONValidate }

// CacheGetConfig reads Key from the cache. Default is emitted on a miss.
type CacheGetConfig struct {
	Key     string  `json:"key,omitempty" yaml:"key,omitempty"`
	Default *string `json:"default,omitempty" yaml:"default,omitempty"`
}

// BlockType implements workflow.Payload.
func (CacheGetConfig) BlockType() string { return TypeCacheGet }

// CacheSetConfig stores the input text under Key.
type CacheSetConfig struct {
	Key   string `json:"key" yaml:"key"`
	TTLMS uint64 `json:"ttl_ms,omitempty" yaml:"ttl_ms,omitempty"`
}

// BlockType implements workflow.Payload.
func (CacheSetConfig) BlockType() string { return TypeCacheSet }

// SQLQueryConfig runs a read query. Args are positional; when empty a JSON
// array input supplies them.
type SQLQueryConfig struct {
	Query string `json:"query" yaml:"query"`
	Args  []any  `json:"args,omitempty" yaml:"args,omitempty"`
}

// BlockType implements workflow.Payload.
func (SQLQueryConfig) BlockType() string { return TypeSQLQuery }

// NATSPublishConfig publishes the input on Subject.
type NATSPublishConfig struct {
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
	Subject string `json:"subject" yaml:"subject"`
}

// BlockType implements workflow.Payload.
func (NATSPublishConfig) BlockType() string { return TypeNATSPublish }

// NATSSubscribeConfig emits one value per message on Subject.
type NATSSubscribeConfig struct {
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
	Subject string `json:"subject" yaml:"subject"`
}

// BlockType implements workflow.Payload.
func (NATSSubscribeConfig) BlockType() string { return TypeNATSSubscribe }

// WebSocketListenConfig emits one value per frame received from URL.
type WebSocketListenConfig struct {
	URL string `json:"url" yaml:"url"`
}

// BlockType implements workflow.Payload.
func (WebSocketListenConfig) BlockType() string { return TypeWebSocketListen }

// JWTSignConfig signs JSON claims with HS256.
type JWTSignConfig struct {
	Secret string `json:"secret" yaml:"secret"`
	Issuer string `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	TTLMS  uint64 `json:"ttl_ms,omitempty" yaml:"ttl_ms,omitempty"`
}

// BlockType implements workflow.Payload.
func (JWTSignConfig) BlockType() string { return TypeJWTSign }

// JWTVerifyConfig verifies an HS256 token and emits its claims.
type JWTVerifyConfig struct {
	Secret string `json:"secret" yaml:"secret"`
	Issuer string `json:"issuer,omitempty" yaml:"issuer,omitempty"`
}

// BlockType implements workflow.Payload.
func (JWTVerifyConfig) BlockType() string { return TypeJWTVerify }
