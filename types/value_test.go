package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestBlockOutput_TaggedJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(StringOutput("hello"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"string","v":"hello"}`, string(data))

	data, err = json.Marshal(EmptyOutput())
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"empty"}`, string(data))

	data, err = json.Marshal(BlockOutput{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"empty"}`, string(data), "zero value encodes as empty")

	var out BlockOutput
	require.NoError(t, json.Unmarshal([]byte(`{"type":"json","v":{"a":[1,2]}}`), &out))
	assert.Equal(t, KindJSON, out.Kind)
	assert.Equal(t, map[string]any{"a": []any{float64(1), float64(2)}}, out.Data)

	require.NoError(t, json.Unmarshal([]byte(`{"type":"list","v":["x","y"]}`), &out))
	assert.Equal(t, ListOutput([]string{"x", "y"}), out)
}

func TestBlockOutput_UnknownKindRejected(t *testing.T) {
	t.Parallel()

	var out BlockOutput
	err := json.Unmarshal([]byte(`{"type":"multi","v":[]}`), &out)
	require.Error(t, err, "multi is input-only")

	_, err = json.Marshal(BlockOutput{Kind: KindError})
	require.Error(t, err)
}

func TestBlockOutput_YAML(t *testing.T) {
	t.Parallel()

	data, err := yaml.Marshal(TextOutput("hi"))
	require.NoError(t, err)

	var out BlockOutput
	require.NoError(t, yaml.Unmarshal(data, &out))
	assert.Equal(t, TextOutput("hi"), out)

	require.NoError(t, yaml.Unmarshal([]byte("type: json\nv:\n  name: demo\n"), &out))
	assert.Equal(t, JSONOutput(map[string]any{"name": "demo"}), out)
}

func TestBlockOutput_Text(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", EmptyOutput().Text())
	assert.Equal(t, "raw", StringOutput("raw").Text())
	assert.Equal(t, "shown", TextOutput("shown").Text())
	assert.Equal(t, `{"a":1}`, JSONOutput(map[string]any{"a": 1}).Text())
	assert.Equal(t, "plain", JSONOutput("plain").Text())
	assert.Equal(t, "a\nb", ListOutput([]string{"a", "b"}).Text())
}

func TestBlockInput_Conversions(t *testing.T) {
	t.Parallel()

	in := InputOf(StringOutput("x"))
	out, ok := in.Output()
	require.True(t, ok)
	assert.Equal(t, StringOutput("x"), out)

	_, ok = MultiInput(StringOutput("a")).Output()
	assert.False(t, ok)

	_, ok = ErrorInput("boom").Output()
	assert.False(t, ok)

	out, ok = BlockInput{}.Output()
	require.True(t, ok)
	assert.True(t, out.IsEmpty())

	assert.True(t, InputOf(BlockOutput{}).IsEmpty())
	assert.True(t, ErrorInput("x").IsError())
	assert.Equal(t, "a\nb", MultiInput(StringOutput("a"), TextOutput("b")).Text())
}

func TestBlockInput_JSON(t *testing.T) {
	t.Parallel()

	in := MultiInput(StringOutput("a"), EmptyOutput())
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"multi","v":[{"type":"string","v":"a"},{"type":"empty"}]}`, string(data))

	var decoded BlockInput
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, in, decoded)

	data, err = json.Marshal(ErrorInput("bad"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ErrorInput("bad"), decoded)
}

func TestExecutionResult_Constructors(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ResultOnce, Once(EmptyOutput()).Kind)

	multi := Multiple()
	assert.Equal(t, ResultMultiple, multi.Kind)
	assert.NotNil(t, multi.Outputs)

	ch := make(chan BlockOutput)
	rec := Recurring(ch)
	assert.Equal(t, ResultRecurring, rec.Kind)
	assert.Equal(t, "recurring", rec.Kind.String())
}
