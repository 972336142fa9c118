// =============================================================================
// 📦 测试数据工厂 - 工作流定义
// =============================================================================
// 提供常用的图形状，节点块类型由调用方指定
// =============================================================================
package fixtures

import (
	"github.com/BaSui01/blockflow/types"
	"github.com/BaSui01/blockflow/workflow"
)

func node(typeID string) workflow.BlockConfig {
	return workflow.CustomConfig(typeID, nil)
}

// Linear 返回 ids[0] → ids[1] → ... 的线性定义，所有节点使用 typeID
func Linear(typeID string, ids ...workflow.NodeID) *workflow.Definition {
	b := workflow.NewBuilder("linear")
	for _, id := range ids {
		b.AddNode(id, node(typeID))
	}
	for i := 1; i < len(ids); i++ {
		b.AddEdge(ids[i-1], ids[i])
	}
	if len(ids) > 0 {
		b.SetEntry(ids[0])
	}
	return b.MustBuild()
}

// Diamond 返回 start → {left, right} → join
func Diamond(typeID string) *workflow.Definition {
	return workflow.NewBuilder("diamond").
		AddNode("start", node(typeID)).Done().
		AddNode("left", node(typeID)).Done().
		AddNode("right", node(typeID)).Done().
		AddNode("join", node(typeID)).Done().
		AddEdge("start", "left").
		AddEdge("start", "right").
		AddEdge("left", "join").
		AddEdge("right", "join").
		SetEntry("start").
		MustBuild()
}

// Loop 返回带种子输入的 a ⇄ b 环，b 另连到汇点 out
func Loop(typeID string, seed types.BlockOutput) *workflow.Definition {
	return workflow.NewBuilder("loop").
		AddNode("a", node(typeID)).WithInput(seed).Done().
		AddNode("b", node(typeID)).Done().
		AddNode("out", node(typeID)).Done().
		AddEdge("a", "b").
		AddEdge("b", "a").
		AddEdge("b", "out").
		SetEntry("a").
		MustBuild()
}

// ErrorRouted 返回 source → failing → after，failing 的错误边指向 handler
func ErrorRouted(okType, failType, handlerType string) *workflow.Definition {
	return workflow.NewBuilder("error-routed").
		AddNode("source", node(okType)).Done().
		AddNode("failing", node(failType)).Done().
		AddNode("after", node(okType)).Done().
		AddNode("handler", node(handlerType)).Done().
		AddEdge("source", "failing").
		AddEdge("failing", "after").
		AddErrorEdge("failing", "handler").
		SetEntry("source").
		MustBuild()
}
