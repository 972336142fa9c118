package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRetryer_Success(t *testing.T) {
	retryer := NewRetryer(Exponential(3, 1, 2.0), zap.NewNop())

	callCount := 0
	err := retryer.Do(context.Background(), func(ctx context.Context) error {
		callCount++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, callCount, "应该只调用一次")
}

func TestRetryer_RetryAndSuccess(t *testing.T) {
	var delays []time.Duration
	retryer := NewRetryer(Exponential(3, 1, 2.0), zap.NewNop(),
		WithOnRetry(func(attempt uint32, err error, delay time.Duration) {
			delays = append(delays, delay)
		}),
	)

	callCount := 0
	result, err := DoWithResult(context.Background(), retryer, func(ctx context.Context) (string, error) {
		callCount++
		if callCount < 3 {
			return "", errors.New("temporary error")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, callCount)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, delays)
}

func TestRetryer_Exhausted(t *testing.T) {
	retryer := NewRetryer(Exponential(2, 1, 2.0), zap.NewNop())
	testErr := errors.New("permanent")

	callCount := 0
	err := retryer.Do(context.Background(), func(ctx context.Context) error {
		callCount++
		return testErr
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, testErr)
	assert.Equal(t, 3, callCount, "一次初始调用加两次重试")
}

func TestRetryer_NoRetriesReturnsErrorUnwrapped(t *testing.T) {
	retryer := NewRetryer(DefaultPolicy(), nil)
	testErr := errors.New("once")

	err := retryer.Do(context.Background(), func(ctx context.Context) error { return testErr })
	assert.Same(t, testErr, err)
}

func TestRetryer_NonRetryable(t *testing.T) {
	fatal := errors.New("fatal")
	retryer := NewRetryer(Exponential(5, 1, 2.0), zap.NewNop(),
		WithShouldRetry(func(err error) bool { return !errors.Is(err, fatal) }),
	)

	callCount := 0
	err := retryer.Do(context.Background(), func(ctx context.Context) error {
		callCount++
		return fatal
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, callCount)
}

func TestRetryer_ContextCancelled(t *testing.T) {
	retryer := NewRetryer(Exponential(5, 10_000, 2.0), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	callCount := 0
	done := make(chan error, 1)
	go func() {
		done <- retryer.Do(ctx, func(ctx context.Context) error {
			callCount++
			return errors.New("keep failing")
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("retryer did not observe cancellation")
	}
	assert.Equal(t, 1, callCount)
}
