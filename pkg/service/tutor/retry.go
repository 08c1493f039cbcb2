package tutor

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"github.com/secmon-lab/wrongbook/pkg/utils/logging"
)

const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 2000 * time.Millisecond
)

// RetryPolicy retries transient failures with exponential backoff starting
// at InitialDelay and doubling per attempt
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	// Sleep waits for d or until ctx is done. Replaced in tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		Sleep:        sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var transientMarkers = []string{
	"429",
	"resource_exhausted",
	"quota",
	"rate limit",
}

// IsTransient reports whether err is worth retrying: quota and rate limit
// rejections, and model output that could not be parsed
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, model.ErrMalformedResponse) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Retry runs fn until it succeeds, fails with a non-transient error, or the
// attempts run out. The last error is returned.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := policy.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := range attempts {
		if attempt > 0 {
			delay := policy.InitialDelay * time.Duration(1<<(attempt-1))
			logging.From(ctx).Warn("retrying inference",
				"attempt", attempt+1,
				"maxAttempts", attempts,
				"delay", delay,
				"error", lastErr,
			)
			if err := sleep(ctx, delay); err != nil {
				return zero, goerr.Wrap(err, "retry interrupted", goerr.V("attempt", attempt+1))
			}
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsTransient(err) {
			return zero, err
		}
	}

	return zero, lastErr
}
