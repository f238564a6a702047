package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"margadarshak/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = RetryConfig{MaxRetries: 4, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

func TestWithRetry_RecoversFromTransientErrors(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), fastRetry, logger.NewTestLogger(t), "connect", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("rpc error: code = Unavailable desc = connection refused")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_StopsOnPermanentError(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), fastRetry, logger.NewTestLogger(t), "connect", func(ctx context.Context) error {
		calls++
		return errors.New("permission denied")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestWithRetry_GivesUp(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), fastRetry, logger.NewTestLogger(t), "connect", func(ctx context.Context) error {
		calls++
		return errors.New("context deadline exceeded")
	})
	require.Error(t, err)
	assert.Equal(t, fastRetry.MaxRetries, calls)
}

func TestWithRetry_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	slow := RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}

	err := withRetry(ctx, slow, logger.NewTestLogger(t), "connect", func(ctx context.Context) error {
		cancel()
		return errors.New("connection reset by peer")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(errors.New("Service Unavailable")))
	assert.True(t, isRetryable(errors.New("i/o timeout")))
	assert.False(t, isRetryable(errors.New("already exists")))
}
