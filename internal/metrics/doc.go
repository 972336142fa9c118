// Copyright (c) BlockFlow Authors.
// Licensed under the MIT License.

/*
包 metrics 提供基于 Prometheus 的工作流执行指标采集。

# 概述

Collector 实现 workflow.Observer，挂到 Executor 上即可记录运行与节点
激活指标。指标通过 promauto 注册到默认 Registry，按 namespace 隔离，
由 internal/server 以 /metrics 暴露。

# 指标

  - workflow_runs_total{status,kind}：结束的运行数，status 为
    completed/failed/budget_exhausted，kind 区分 root 与 child
  - workflow_run_duration_seconds{status}：运行耗时
  - workflow_runs_in_flight：执行中的运行数
  - node_activations_total{block_type,result}：节点激活数
  - node_activation_duration_seconds{block_type}：激活耗时
  - node_errors_routed_total{block_type}：被错误边接管的失败
  - iteration_budget_exhausted_total：迭代预算耗尽次数
*/
package metrics
