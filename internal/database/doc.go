// Copyright (c) BlockFlow Authors.
// Licensed under the MIT License.

/*
包 database 提供基于 GORM 的数据库连接与连接池管理，供 sql_query 内置块使用。

# 概述

Open 按驱动名（postgres、mysql、sqlite）选择 GORM 方言并建立连接，
PoolManager 负责连接池参数、后台健康检查以及只读查询。

# 核心类型

  - PoolManager：持有 GORM DB 与底层 sql.DB，提供 Query/Ping/Stats/Close。
  - PoolConfig：最大空闲连接、最大打开连接、连接生命周期与健康检查间隔。

# 主要能力

  - 查询结果归一化：Query 返回按列名组织的行，[]byte 转为字符串。
  - 可重试判断：IsRetryableError 识别死锁、序列化失败与连接类错误。
*/
package database
