// Copyright (c) BlockFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供 BlockFlow 引擎的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 workflow、blocks、retry
等上层模块提供统一的类型契约：块（Block）接口、边上传递的值模型、
块执行结果以及结构化错误体系。

# 核心接口与类型

  - Block / BlockFunc: 块执行接口 Execute(ctx, BlockInput) (ExecutionResult, error)
  - BlockOutput: 块产出值（Empty / String / Text / Json / List）
  - BlockInput: 块输入值，额外包含 Multi（扇入）与 Error（上游失败）
  - ExecutionResult: Once / Multiple / Recurring 三种结果形态
  - Error / ErrorCode: 结构化错误，按 build / block / runtime 分类

# 主要能力

  - 值序列化：{"type": "...", "v": ...} 标签格式，JSON 与 YAML 一致
  - 错误工具链：GetErrorCode / IsRetryable / IsBuildError / IsBlockError / IsRuntimeError
  - 错误短路：ErrorFromInput 让块对 Error 输入立即返回上游错误
*/
package types
