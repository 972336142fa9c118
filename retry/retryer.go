package retry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Retryer 按 Policy 执行重试
// 块实现在自己的错误边界上使用它，运行时本身从不重试
type Retryer struct {
	policy      Policy
	shouldRetry func(error) bool
	onRetry     func(attempt uint32, err error, delay time.Duration)
	logger      *zap.Logger
}

// Option 配置 Retryer
type Option func(*Retryer)

// WithShouldRetry 设置错误过滤器（为空则所有错误都可重试）
func WithShouldRetry(fn func(error) bool) Option {
	return func(r *Retryer) { r.shouldRetry = fn }
}

// WithOnRetry 设置重试回调
func WithOnRetry(fn func(attempt uint32, err error, delay time.Duration)) Option {
	return func(r *Retryer) { r.onRetry = fn }
}

// NewRetryer 创建重试器
func NewRetryer(policy Policy, logger *zap.Logger, opts ...Option) *Retryer {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Retryer{
		policy: policy,
		logger: logger.With(zap.String("component", "retryer")),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do 执行函数，失败时根据策略重试
func (r *Retryer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := DoWithResult(ctx, r, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoWithResult 执行函数并返回结果，失败时根据策略重试
func DoWithResult[T any](ctx context.Context, r *Retryer, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
		retries uint32
	)

	for {
		result, err := fn(ctx)
		if err == nil {
			if retries > 0 {
				r.logger.Info("retry succeeded", zap.Uint32("retries", retries))
			}
			return result, nil
		}
		lastErr = err

		if r.shouldRetry != nil && !r.shouldRetry(err) {
			r.logger.Debug("error is not retryable", zap.Error(err))
			return zero, err
		}

		if !r.policy.CanRetry(retries) {
			break
		}

		delay := r.policy.Backoff(retries)
		retries++

		r.logger.Debug("retrying",
			zap.Uint32("attempt", retries),
			zap.Uint32("max_retries", r.policy.MaxRetries),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if r.onRetry != nil {
			r.onRetry(retries, err, delay)
		}

		// 等待延迟，同时监听 context 取消
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}

	if r.policy.MaxRetries == 0 {
		return zero, lastErr
	}

	r.logger.Warn("retries exhausted",
		zap.Uint32("attempts", retries+1),
		zap.Error(lastErr),
	)
	return zero, fmt.Errorf("failed after %d retries: %w", retries, lastErr)
}
