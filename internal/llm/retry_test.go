package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSleep records requested delays without waiting
func recordingSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
}

func TestRetry_SucceedsAfterTwoRateLimits(t *testing.T) {
	var delays []time.Duration
	policy := DefaultRetryPolicy()
	policy.Sleep = recordingSleep(&delays)

	calls := 0
	result, err := Retry(context.Background(), policy, func(ctx context.Context) (string, error) {
		calls++
		if calls <= 2 {
			return "", errors.New("googleapi: Error 429: Resource has been exhausted (e.g. check quota)")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, delays, "exactly two doubling delays")
}

func TestRetry_NonRateLimitErrorIsNotRetried(t *testing.T) {
	var delays []time.Duration
	policy := DefaultRetryPolicy()
	policy.Sleep = recordingSleep(&delays)

	boom := errors.New("invalid argument")
	calls := 0
	_, err := Retry(context.Background(), policy, func(ctx context.Context) (int, error) {
		calls++
		return 0, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestRetry_ExhaustionReturnsLastError(t *testing.T) {
	var delays []time.Duration
	policy := DefaultRetryPolicy()
	policy.Sleep = recordingSleep(&delays)

	quota := errors.New("quota exceeded")
	calls := 0
	_, err := Retry(context.Background(), policy, func(ctx context.Context) (int, error) {
		calls++
		return 0, quota
	})

	assert.ErrorIs(t, err, quota)
	assert.Equal(t, 3, calls)
	assert.Len(t, delays, 2)
}

func TestRetry_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Hour}

	calls := 0
	_, err := Retry(ctx, policy, func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("429 Too Many Requests")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_DelayCap(t *testing.T) {
	policy := RetryPolicy{BaseDelay: time.Second, MaxDelay: 5 * time.Second}

	assert.Equal(t, time.Second, policy.Delay(1))
	assert.Equal(t, 2*time.Second, policy.Delay(2))
	assert.Equal(t, 4*time.Second, policy.Delay(3))
	assert.Equal(t, 5*time.Second, policy.Delay(4))
}

func TestRetryPolicy_DelayLargeAttempts(t *testing.T) {
	capped := RetryPolicy{BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second}
	for _, attempt := range []int{10, 40, 64, 65, 200} {
		assert.Equal(t, 30*time.Second, capped.Delay(attempt), "attempt %d", attempt)
	}

	uncapped := RetryPolicy{BaseDelay: 2 * time.Second}
	prev := time.Duration(0)
	for attempt := 1; attempt <= 100; attempt++ {
		d := uncapped.Delay(attempt)
		assert.Positive(t, d, "attempt %d", attempt)
		assert.GreaterOrEqual(t, d, prev, "attempt %d", attempt)
		prev = d
	}
}

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{err: nil, want: false},
		{err: errors.New("API returned status 429: slow down"), want: true},
		{err: errors.New("Quota exceeded for quota metric"), want: true},
		{err: errors.New("RESOURCE_EXHAUSTED"), want: true},
		{err: errors.New("rate limit reached"), want: true},
		{err: errors.New("connection refused"), want: false},
		{err: errors.New("invalid JSON response"), want: false},
	}

	for _, tt := range tests {
		name := "nil"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimitError(tt.err))
		})
	}
}
