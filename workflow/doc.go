// Copyright (c) BlockFlow Authors.
// Licensed under the MIT License.

/*
Package workflow 提供工作流图模型与执行运行时。

# 概述

workflow 包负责把由 Block 组成的有向图（允许存在环）驱动到结束：
按波前（wavefront）计算可执行节点、解析每个节点的输入、调用 Block、
解释返回结果，并把输出沿边传播给后继节点。环路由迭代预算（iteration
budget）约束，Recurring 触发器每个 tick 只取一个值。

# 核心接口与类型

  - Definition: 工作流定义（Nodes / Edges / ErrorEdges / Entry）
  - Builder: Fluent API 构建定义（含引用校验与不可达节点告警）
  - BlockConfig: 节点配置（类型 ID + 载荷，或嵌套子工作流）
  - Registry: 类型 ID → Factory 的注册表，后注册者覆盖
  - Run / RunState: 单次执行的状态机（Created / Running / Completed / Failed）
  - Executor: 调度器，驱动 Run 直到图耗尽、预算用尽或失败
  - Observer: 结构化执行事件回调（NoopObserver / MultiObserver）
  - HistoryStore: 记录每次运行激活路径的 Observer

# 主要能力

  - 图查询：Successors / Predecessors / Sinks / PrimarySink / TopoOrder / Ready
  - 扇入：多前驱按边插入顺序汇聚为 Multi 输入
  - 扇出：Multiple 结果按出边位置分发，多余丢弃、不足补 Empty
  - 错误边：失败节点的错误以 Error 输入路由到处理节点
  - 子工作流：递归执行嵌套定义，支持超时与重试策略
  - 序列化：JSON / YAML 导入导出，文档经 JSON Schema 校验
*/
package workflow
