// Copyright (c) BlockFlow Authors.
// Licensed under the MIT License.

/*
Package retry 提供指数退避重试策略。

# 概述

Policy 是纯计算器：给定已完成的重试次数，回答"还能否重试"与
"需要等待多久"，本身不睡眠也不重试。Retryer 在块实现的错误边界上
消费 Policy，负责实际的等待与重新执行，并响应 context 取消。

# 核心类型

  - Policy: MaxRetries / InitialBackoffMS / Factor / MaxBackoffMS
  - Retryer: 基于 Policy 的重试执行器（Do / DoWithResult）

# 退避公式

	backoff(n) = min(initial × factor^n, max)   // 四舍五入到毫秒
	MaxRetries == 0 时 backoff 恒为 0
*/
package retry
