package square

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProcessor[T, R any](t *testing.T, concurrency int) *BatchProcessor[T, R] {
	t.Helper()
	rl, err := NewRateLimiter(1000, 10000)
	require.NoError(t, err)
	return NewBatchProcessorWithConcurrency[T, R](rl, fastRetryConfig(), concurrency, zerolog.Nop())
}

func TestBatchProcessDoublesItemsInOrder(t *testing.T) {
	p := newTestProcessor[int, int](t, 1)

	items := make([]int, 25)
	for i := range items {
		items[i] = i + 1
	}

	result := p.Process(context.Background(), items, func(_ context.Context, item int) (int, error) {
		return item * 2, nil
	})

	assert.Equal(t, 25, result.TotalProcessed)
	assert.Equal(t, 25, result.TotalSucceeded)
	assert.Equal(t, 0, result.TotalFailed)
	require.Len(t, result.Results, 25)
	for i, item := range items {
		assert.Equal(t, item*2, result.Results[i], "results must preserve input order")
	}
}

func TestBatchProcessToleratesPartialFailure(t *testing.T) {
	p := newTestProcessor[int, string](t, 1)

	result := p.Process(context.Background(), []int{1, 2, 3, 4, 5}, func(_ context.Context, item int) (string, error) {
		if item%2 == 0 {
			return "", fmt.Errorf("item %d rejected", item)
		}
		return fmt.Sprintf("ok-%d", item), nil
	})

	assert.Equal(t, 5, result.TotalProcessed)
	assert.Equal(t, 3, result.TotalSucceeded)
	assert.Equal(t, 2, result.TotalFailed)
	assert.Equal(t, result.TotalProcessed, result.TotalSucceeded+result.TotalFailed)
	assert.Equal(t, []string{"ok-1", "ok-3", "ok-5"}, result.Results)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 2, result.Errors[0].Item)
	assert.Equal(t, 4, result.Errors[1].Item)
}

func TestBatchProcessAccountingUnderParallelism(t *testing.T) {
	p := newTestProcessor[int, int](t, 8)

	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	result := p.Process(context.Background(), items, func(_ context.Context, item int) (int, error) {
		if item%7 == 0 {
			return 0, errors.New("boom")
		}
		return item, nil
	})

	assert.Equal(t, 100, result.TotalProcessed)
	assert.Equal(t, result.TotalProcessed, result.TotalSucceeded+result.TotalFailed)
	assert.Equal(t, 15, result.TotalFailed)
	assert.Len(t, result.Results, 85)
}

func TestBatchProcessRetriesTransientErrors(t *testing.T) {
	p := newTestProcessor[int, int](t, 1)

	var mu sync.Mutex
	attempts := map[int]int{}

	result := p.Process(context.Background(), []int{1, 2}, func(_ context.Context, item int) (int, error) {
		mu.Lock()
		attempts[item]++
		n := attempts[item]
		mu.Unlock()
		if n < 2 {
			return 0, &APIError{StatusCode: http.StatusTooManyRequests}
		}
		return item, nil
	})

	assert.Equal(t, 2, result.TotalSucceeded)
	assert.Equal(t, 2, attempts[1])
	assert.Equal(t, 2, attempts[2])
}

func TestBatchProcessRespectsSharedRateLimiter(t *testing.T) {
	rl, err := NewRateLimiter(2, 1000)
	require.NoError(t, err)
	p := NewBatchProcessorWithConcurrency[int, int](rl, fastRetryConfig(), 4, zerolog.Nop())

	start := time.Now()
	result := p.Process(context.Background(), []int{1, 2, 3, 4, 5, 6}, func(_ context.Context, item int) (int, error) {
		status := rl.CanProceed()
		assert.LessOrEqual(t, status.RequestsInLastSecond, 2)
		return item, nil
	})

	assert.Equal(t, 6, result.TotalSucceeded)
	// Six calls at two per second cannot finish inside the first second's
	// window; allow some slack for scheduling.
	assert.GreaterOrEqual(t, time.Since(start), 1800*time.Millisecond)
}

func TestBatchProcessCancellationBetweenItems(t *testing.T) {
	p := newTestProcessor[int, int](t, 1)

	ctx, cancel := context.WithCancel(context.Background())
	processed := 0

	result := p.Process(ctx, []int{1, 2, 3, 4, 5}, func(_ context.Context, item int) (int, error) {
		processed++
		if item == 2 {
			cancel()
		}
		return item, nil
	})

	assert.Equal(t, 5, result.TotalProcessed)
	assert.Equal(t, result.TotalProcessed, result.TotalSucceeded+result.TotalFailed)
	assert.Equal(t, 2, processed, "items after cancellation must not start")
	for _, itemErr := range result.Errors {
		assert.ErrorIs(t, itemErr.Err, context.Canceled)
	}
}

func TestBatchRateLimitStatusPassthrough(t *testing.T) {
	p := newTestProcessor[int, int](t, 1)
	status := p.RateLimitStatus()
	assert.True(t, status.Allowed)
	assert.Zero(t, status.RequestsInLastMinute)
}
