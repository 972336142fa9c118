package retry

import (
	"math"
	"time"
)

// 默认退避参数
const (
	DefaultInitialBackoffMS uint64  = 1000
	DefaultFactor           float64 = 2.0
	DefaultMaxBackoffMS     uint64  = 30000
)

// Policy 重试策略（纯计算器）
// 本身不睡眠也不重试，只根据已完成的重试次数计算是否可以继续以及需要等待多久
type Policy struct {
	MaxRetries       uint32  `json:"max_retries" yaml:"max_retries"`               // 最大重试次数（0 表示不重试）
	InitialBackoffMS uint64  `json:"initial_backoff_ms" yaml:"initial_backoff_ms"` // 初始退避（毫秒）
	Factor           float64 `json:"factor" yaml:"factor"`                         // 指数因子
	MaxBackoffMS     uint64  `json:"max_backoff_ms" yaml:"max_backoff_ms"`         // 退避上限（毫秒）
}

// DefaultPolicy 返回默认策略：不重试
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:       0,
		InitialBackoffMS: DefaultInitialBackoffMS,
		Factor:           DefaultFactor,
		MaxBackoffMS:     DefaultMaxBackoffMS,
	}
}

// Exponential 创建指数退避策略
// initialMS 为 0 时回退到 1000ms，factor <= 0 时回退到 2.0
func Exponential(maxRetries uint32, initialMS uint64, factor float64) Policy {
	p := DefaultPolicy()
	p.MaxRetries = maxRetries
	if initialMS > 0 {
		p.InitialBackoffMS = initialMS
	}
	if factor > 0 {
		p.Factor = factor
	}
	return p
}

// WithMaxBackoff 设置退避上限，至少 1ms
func (p Policy) WithMaxBackoff(maxMS uint64) Policy {
	if maxMS < 1 {
		maxMS = 1
	}
	p.MaxBackoffMS = maxMS
	return p
}

// CanRetry 判断在已完成 retriesDone 次重试后是否还能继续
func (p Policy) CanRetry(retriesDone uint32) bool {
	return retriesDone < p.MaxRetries
}

// BackoffMS 计算第 retriesDone 次重试前的等待时间（毫秒）
// backoff = min(initial * factor^n, max)，四舍五入到毫秒
func (p Policy) BackoffMS(retriesDone uint32) uint64 {
	if p.MaxRetries == 0 {
		return 0
	}
	p = p.normalized()

	delay := float64(p.InitialBackoffMS) * math.Pow(p.Factor, float64(retriesDone))
	capped := math.Min(delay, float64(p.MaxBackoffMS))
	if math.IsNaN(capped) || capped < 0 {
		return 0
	}
	return uint64(math.Round(capped))
}

// Backoff 与 BackoffMS 相同，返回 time.Duration
func (p Policy) Backoff(retriesDone uint32) time.Duration {
	return time.Duration(p.BackoffMS(retriesDone)) * time.Millisecond
}

// normalized 修正反序列化得到的零值字段
func (p Policy) normalized() Policy {
	if p.InitialBackoffMS == 0 {
		p.InitialBackoffMS = DefaultInitialBackoffMS
	}
	if p.Factor <= 0 {
		p.Factor = DefaultFactor
	}
	if p.MaxBackoffMS == 0 {
		p.MaxBackoffMS = DefaultMaxBackoffMS
	}
	return p
}
