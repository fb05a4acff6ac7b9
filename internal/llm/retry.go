package llm

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"
)

// RetryPolicy - exponential backoff for rate-limited model calls.
// Only rate-limit errors are retried; everything else is returned as is.
type RetryPolicy struct {
	MaxAttempts int           // total attempts, including the first one
	BaseDelay   time.Duration // delay before the 2nd attempt, doubled afterwards
	MaxDelay    time.Duration // 0 means no cap

	// Sleep waits for d or until ctx is done. Nil means a real timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy: 3 attempts, 2s → 4s
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// Delay returns the backoff before attempt+1
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			break
		}
		// doubling past this point would wrap negative
		if delay > math.MaxInt64/2 {
			delay = math.MaxInt64
			break
		}
		delay *= 2
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// rateLimitMarkers are matched case-insensitively against the error text
var rateLimitMarkers = []string{"429", "quota", "rate limit", "ratelimit", "resource_exhausted", "too many requests"}

// IsRateLimitError reports whether err looks like a provider rate limit / quota error
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Retry runs fn, retrying rate-limit failures according to the policy
func Retry[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	for attempt := 1; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				log.Printf("✅ LLM retry succeeded on attempt %d/%d", attempt, maxAttempts)
			}
			return result, nil
		}

		if !IsRateLimitError(err) {
			return zero, err
		}

		if attempt >= maxAttempts {
			log.Printf("❌ LLM rate limit: all %d attempts exhausted: %v", maxAttempts, err)
			return zero, fmt.Errorf("rate limited after %d attempts: %w", attempt, err)
		}

		delay := p.Delay(attempt)
		log.Printf("⚠️ LLM quota hit on attempt %d/%d: %v. Retrying in %v...", attempt, maxAttempts, err, delay)

		if err := p.sleep(ctx, delay); err != nil {
			return zero, fmt.Errorf("context cancelled during retry: %w", err)
		}
	}
}
