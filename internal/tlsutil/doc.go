// Copyright (c) BlockFlow Authors.
// Licensed under the MIT License.

// Package tlsutil 为块发起的出站连接提供集中式 TLS 配置
// （TLS 1.2+，仅 AEAD 密码套件），http_request 块默认使用这里的客户端。
package tlsutil
