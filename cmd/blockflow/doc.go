// Copyright (c) BlockFlow Authors.
// Licensed under the MIT License.

/*
Package main 提供 BlockFlow 命令行程序入口。

# 概述

cmd/blockflow 加载 JSON/YAML 工作流定义并在本进程内执行，结果以 JSON
输出到 stdout。配置来自 YAML 文件与 BLOCKFLOW_ 前缀的环境变量。

# 子命令

  - run：执行工作流，可指定初始输入、迭代预算、Recurring 读取超时与并发上限
  - validate：校验定义结构并检查块类型是否已注册
  - blocks：列出内置块类型
  - version / help

# 组装

App 按配置连接 Redis（cache_get/cache_set）、数据库（sql_query），
启动 /metrics 服务器并挂载 Prometheus 与 OpenTelemetry 观察者；
Version、BuildTime、GitCommit 通过 ldflags 注入。
*/
package main
