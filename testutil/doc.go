// Copyright (c) BlockFlow Authors.
// Licensed under the MIT License.

/*
Package testutil 提供 BlockFlow 测试的共享工具和辅助函数。

# 概述

testutil 为执行器、块与观察者测试提供统一的辅助能力，避免各包重复
实现相似的测试基础设施。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 执行器辅助: NewRegistry / NewExecutor，按 map 注册测试块
  - 断言工具: AssertOutputEqual / AssertJSONEqual / AssertEventuallyTrue
  - Recurring 辅助: SendOutputs / CollectOutputs
  - 数据工具: MustJSON / MustParseJSON

# 子包

  - testutil/mocks: MockBlock（可编排输出、失败次数与 Recurring 流）、
    RecordingObserver（按顺序记录观察者事件）
  - testutil/fixtures: 常用图形状（线性、菱形、环、错误边）与覆盖所有
    值类型的样例输出
*/
package testutil
