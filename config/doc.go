// Copyright (c) BlockFlow Authors.
// Licensed under the MIT License.

/*
Package config 提供 BlockFlow 的配置加载。

# 概述

Loader 以 Builder 方式组合配置来源，优先级为：默认值 → YAML 文件 →
环境变量（默认前缀 BLOCKFLOW，按 env 标签逐层拼接，如
BLOCKFLOW_ENGINE_ITERATION_BUDGET）。配置文件不存在时沿用默认值。

# 配置分区

  - Engine：执行引擎的迭代预算、Recurring 读取超时、并发上限，
    通过 EngineConfig.Options 转为 workflow.RunOption
  - Redis / Database / NATS：外部资源块的连接参数，Enabled 为 false 时不建立连接
  - Log / Metrics / Telemetry：日志、Prometheus 指标与 OpenTelemetry
*/
package config
