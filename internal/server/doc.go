// Copyright (c) BlockFlow Authors.
// Licensed under the MIT License.

/*
包 server 管理 BlockFlow 指标端点的 HTTP 服务器生命周期。

# 概述

Manager 封装 net/http.Server，提供非阻塞启动、优雅关闭与异步错误
传播。Handler 构建路由：在配置路径上通过 promhttp 暴露 Prometheus
指标，并提供 /healthz 探活。

  - Start：后台启动监听，Addr 返回实际监听地址（支持 :0）
  - Shutdown：在 ShutdownTimeout 内排空连接，重复调用无副作用
  - Errors：返回服务异常通道，供 CLI 监控
*/
package server
