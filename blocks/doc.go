// Copyright (c) BlockFlow Authors.
// Licensed under the MIT License.

/*
Package blocks 提供 BlockFlow 的内置 Block 实现与默认注册表。

# 概述

每种内置块都有一个强类型配置（实现 workflow.Payload），并通过
RegisterBuiltins 注册到 workflow.Registry。块只依赖 types 中的值模型，
对上游传来的 Error 输入默认直接返回错误（conditional 例外，它走 else
分支）。需要外部资源的块（缓存、数据库、HTTP、NATS）通过 Option 注入
依赖，未注入时构建阶段即返回 BUILD_ERROR。

# 内置块

  - 变换：custom_transform、echo、merge、template
  - 拆分与扇出：split、split_by_keys、split_lines
  - 列表：combine、select_first、filter
  - 控制：conditional、delay
  - 文件：file_read、file_write、list_directory
  - 触发器（Recurring）：cron、interval_trigger、nats_subscribe、websocket_listen
  - 外部服务：http_request、cache_get、cache_set、sql_query、nats_publish
  - 校验与令牌：json_validate、jwt_sign、jwt_verify

# 使用方式

	reg := blocks.DefaultRegistry(logger, blocks.WithCache(cacheManager))
	exec := workflow.NewExecutor(reg, logger)
	result, err := exec.Run(ctx, def)
*/
package blocks
