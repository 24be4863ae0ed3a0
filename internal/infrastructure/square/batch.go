package square

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Operation is the per-item work a batch drives: typically one provider API
// call plus the surrounding transform.
type Operation[T, R any] func(ctx context.Context, item T) (R, error)

// ItemError pairs a failed item with its error.
type ItemError[T any] struct {
	Item T
	Err  error
}

// BatchResult aggregates the outcome of one batch. The accounting invariant
// TotalProcessed == TotalSucceeded + TotalFailed == len(items) always holds;
// Results preserves input order with failed items skipped.
type BatchResult[T, R any] struct {
	TotalProcessed int
	TotalSucceeded int
	TotalFailed    int
	Duration       time.Duration
	Results        []R
	Errors         []ItemError[T]
}

// pollInterval is how long a worker sleeps when the rate limiter says no.
const pollInterval = 50 * time.Millisecond

// BatchProcessor drives work items through an operation under the shared
// rate limiter. A single item's failure never aborts the batch. Concurrency
// of 1 means sequential processing; higher values run items in parallel, with
// the limiter remaining the single arbiter of the external call rate.
type BatchProcessor[T, R any] struct {
	limiter     *RateLimiter
	retry       RetryConfig
	concurrency int
	logger      zerolog.Logger
}

// NewBatchProcessor creates a sequential batch processor.
func NewBatchProcessor[T, R any](limiter *RateLimiter, retry RetryConfig, logger zerolog.Logger) *BatchProcessor[T, R] {
	return NewBatchProcessorWithConcurrency[T, R](limiter, retry, 1, logger)
}

// NewBatchProcessorWithConcurrency creates a batch processor with bounded
// parallelism.
func NewBatchProcessorWithConcurrency[T, R any](limiter *RateLimiter, retry RetryConfig, concurrency int, logger zerolog.Logger) *BatchProcessor[T, R] {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BatchProcessor[T, R]{
		limiter:     limiter,
		retry:       retry,
		concurrency: concurrency,
		logger:      logger,
	}
}

// RateLimitStatus exposes the limiter's current window counts.
func (p *BatchProcessor[T, R]) RateLimitStatus() RateLimitStatus {
	return p.limiter.CanProceed()
}

// Process runs op over items. Cancellation takes effect between items, never
// mid-item: items not yet started when the context is cancelled are recorded
// as failures with the context's error, so the accounting invariant holds on
// every exit path.
func (p *BatchProcessor[T, R]) Process(ctx context.Context, items []T, op Operation[T, R]) BatchResult[T, R] {
	start := time.Now()

	type slot struct {
		result R
		err    error
	}
	slots := make([]slot, len(items))

	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup
	for i := range items {
		sem <- struct{}{}

		// Between-item cancellation point: items already in flight finish,
		// items not yet started are recorded as failures.
		if err := ctx.Err(); err != nil {
			<-sem
			for j := i; j < len(items); j++ {
				slots[j].err = err
			}
			break
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			slots[idx].result, slots[idx].err = p.processOne(ctx, items[idx], op)
		}(i)
	}
	wg.Wait()

	result := BatchResult[T, R]{
		TotalProcessed: len(items),
		Duration:       time.Since(start),
	}
	for i, s := range slots {
		if s.err != nil {
			result.TotalFailed++
			result.Errors = append(result.Errors, ItemError[T]{Item: items[i], Err: s.err})
			continue
		}
		result.TotalSucceeded++
		result.Results = append(result.Results, s.result)
	}

	p.logger.Debug().
		Int("processed", result.TotalProcessed).
		Int("succeeded", result.TotalSucceeded).
		Int("failed", result.TotalFailed).
		Dur("duration", result.Duration).
		Msg("Batch completed")

	return result
}

// processOne waits for the rate limiter, then runs the operation under the
// retry policy. Each retry attempt re-acquires the limiter so retries count
// against the ceilings like any other call.
func (p *BatchProcessor[T, R]) processOne(ctx context.Context, item T, op Operation[T, R]) (R, error) {
	var result R
	err := p.retry.Do(ctx, func() error {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
		var opErr error
		result, opErr = op(ctx, item)
		return opErr
	})
	return result, err
}
