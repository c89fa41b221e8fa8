// File: internal/services/gateway/retry.go
package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// RetryConfig defines simple retry behavior
type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryConfig provides sensible defaults
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		Delay:       500 * time.Millisecond,
	}
}

// Retryable reports whether a failed call may succeed when repeated:
// transport failures and upstream 5xx responses.
func Retryable(err error) bool {
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		return false
	}
	switch gwErr.Type {
	case ErrTypeNetwork:
		return true
	case ErrTypeProvider:
		return gwErr.Code >= http.StatusInternalServerError
	default:
		return false
	}
}

// RetryWithBackoff executes fn until it succeeds, fails with a
// non-retryable error or runs out of attempts. The delay doubles after
// every attempt.
func RetryWithBackoff(ctx context.Context, config *RetryConfig, fn func(ctx context.Context) error) error {
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := config.Delay

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !Retryable(err) || ctx.Err() != nil {
			return err
		}

		// Don't wait after last attempt
		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return lastErr
}
