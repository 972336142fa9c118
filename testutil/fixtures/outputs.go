package fixtures

import "github.com/BaSui01/blockflow/types"

// SampleOutputs 返回覆盖每种值类型的样例输出
func SampleOutputs() []types.BlockOutput {
	return []types.BlockOutput{
		types.EmptyOutput(),
		types.StringOutput("hello"),
		types.TextOutput("line one\nline two"),
		types.JSONOutput(SampleObject()),
		types.JSONOutput([]any{1.0, "two", nil}),
		types.ListOutput([]string{"a", "b", "c"}),
	}
}

// SampleObject 返回嵌套的 JSON 对象样例
func SampleObject() map[string]any {
	return map[string]any{
		"id":     1.0,
		"name":   "blockflow",
		"tags":   []any{"engine", "workflow"},
		"nested": map[string]any{"ok": true},
	}
}
