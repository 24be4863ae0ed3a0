package square

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"rate limited", &APIError{StatusCode: http.StatusTooManyRequests}, true},
		{"server error", &APIError{StatusCode: http.StatusBadGateway}, true},
		{"bad request", &APIError{StatusCode: http.StatusBadRequest}, false},
		{"unauthorized", &APIError{StatusCode: http.StatusUnauthorized}, false},
		{"wrapped api error", errors.Join(errors.New("ctx"), &APIError{StatusCode: 503}), true},
		{"plain error", errors.New("validation failed"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}

func TestRetryDoSucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := fastRetryConfig().Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return &APIError{StatusCode: http.StatusServiceUnavailable}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryDoExhaustsBudget(t *testing.T) {
	attempts := 0
	err := fastRetryConfig().Do(context.Background(), func() error {
		attempts++
		return &APIError{StatusCode: http.StatusTooManyRequests}
	})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 3, attempts)
}

func TestRetryDoDoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	err := fastRetryConfig().Do(context.Background(), func() error {
		attempts++
		return &APIError{StatusCode: http.StatusUnprocessableEntity}
	})
	assert.Error(t, err)
	assert.Equal(t, 1, attempts, "non-retryable errors must not consume retry budget")
}

func TestRetryDoStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := fastRetryConfig().Do(ctx, func() error {
		attempts++
		cancel()
		return &APIError{StatusCode: http.StatusInternalServerError}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}
