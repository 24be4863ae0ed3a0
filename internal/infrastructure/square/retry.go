package square

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"time"
)

// RetryConfig controls how transient provider errors are retried.
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	// Jitter is the fraction of the backoff randomized in both directions,
	// e.g. 0.2 for ±20%.
	Jitter float64
}

// DefaultRetryConfig returns the retry policy used against the Square API:
// three attempts with exponential backoff and jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2.0,
		Jitter:         0.2,
	}
}

// APIError is a non-2xx response from the Square API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("square api error %d: %s", e.StatusCode, e.Body)
}

// IsRetryable classifies an error for the retry layer. Rate-limit responses
// (429) and server errors are retryable, as are transport-level failures.
// Every other client error fails immediately without consuming retry budget.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// Unwrapped transport errors (connection reset, EOF) come through as
	// url.Error values which satisfy net.Error above; anything else is
	// treated as permanent.
	return false
}

// Do runs fn with the configured retry policy. Non-retryable errors and
// context cancellation return immediately.
func (c RetryConfig) Do(ctx context.Context, fn func() error) error {
	backoff := c.InitialBackoff
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if attempt >= c.MaxAttempts || !IsRetryable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.jittered(backoff)):
		}
		backoff = time.Duration(float64(backoff) * c.Multiplier)
		if backoff > c.MaxBackoff {
			backoff = c.MaxBackoff
		}
	}
}

func (c RetryConfig) jittered(d time.Duration) time.Duration {
	if c.Jitter <= 0 {
		return d
	}
	delta := c.Jitter * float64(d)
	return time.Duration(float64(d) - delta + rand.Float64()*2*delta)
}
