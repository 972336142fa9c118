// Copyright (c) BlockFlow Authors.
// Licensed under the MIT License.

/*
包 cache 提供基于 Redis 的键值缓存，供 cache_get / cache_set 内置块使用。

# 概述

Manager 封装 go-redis 客户端，负责连接建立、键前缀隔离、后台健康
检查与优雅关闭。工作流中的缓存块只依赖 Manager，不直接接触 Redis。

# 核心类型

  - Manager：缓存管理器，提供 Get/Set/Delete/TTL/Ping/Close。
  - Config：地址、密码、库编号、键前缀、默认 TTL、连接池与健康检查间隔。

# 主要能力

  - 键前缀：所有键自动加上 KeyPrefix，避免与其他应用冲突。
  - 健康检查：后台定时 Ping，失败时通过 zap 告警，Close 后退出。
  - 错误语义：ErrCacheMiss / IsCacheMiss 区分未命中与连接错误。
*/
package cache
