// Copyright (c) BlockFlow Authors.
// Licensed under the MIT License.

/*
包 logging 负责构建 BlockFlow 进程级的 zap logger。

# 概述

Init 依据 config.LogConfig 构建 logger 并通过 sync.Once 保证只初始化
一次；New 构建独立实例供测试与嵌入方使用。环境变量可在不改配置文件的
情况下调整行为：

  - BLOCKFLOW_OBSERVABILITY_ENABLED=false：关闭日志（nop logger）
  - BLOCKFLOW_LOG_LEVEL：覆盖日志级别
  - BLOCKFLOW_JSON_LOG_PATH：追加一个 JSON 格式的输出文件
*/
package logging
