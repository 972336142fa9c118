// Copyright (c) BlockFlow Authors.
// Licensed under the MIT License.

/*
包 telemetry 封装 OpenTelemetry SDK 初始化，并提供工作流追踪观察者。

# 概述

Init 依据 config.TelemetryConfig 创建 OTLP gRPC 的 TracerProvider 与
MeterProvider 并注册为全局实现；禁用时返回 noop Providers，不连接任何
外部服务。

Tracer 实现 workflow.Observer：每次运行一个 workflow.run span，每次
节点激活一个子 span，子工作流的运行挂在父运行 span 之下；同时记录
blockflow.node.activations 计数与 blockflow.run.duration 直方图。
*/
package telemetry
