package parallel

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Result is the outcome of one submitted job.
type Result[R any] struct {
	ID       string
	Value    R
	Err      error
	Duration time.Duration
}

// WorkerPool manages concurrent job execution with bounded concurrency.
type WorkerPool[R any] struct {
	maxWorkers int
	semaphore  chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	results    []Result[R]
	errors     []error
	failFast   bool
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerPool creates a new worker pool with bounded concurrency.
// If maxWorkers is 0, unlimited workers are allowed (bounded by submitted jobs).
// If failFast is true, the context will be cancelled on the first error.
func NewWorkerPool[R any](ctx context.Context, maxWorkers int, failFast bool) *WorkerPool[R] {
	if maxWorkers < 0 {
		maxWorkers = 0
	}
	ctx, cancel := context.WithCancel(ctx)
	return &WorkerPool[R]{
		maxWorkers: maxWorkers,
		semaphore:  make(chan struct{}, maxWorkers),
		failFast:   failFast,
		ctx:        ctx,
		cancel:     cancel,
		results:    make([]Result[R], 0),
	}
}

// Submit schedules fn under id. If the pool is at capacity the job waits for
// a free worker. A job that never starts because the pool was cancelled is
// still recorded, with the context error.
func (p *WorkerPool[R]) Submit(id string, fn func(ctx context.Context) (R, error)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		if p.maxWorkers > 0 {
			select {
			case p.semaphore <- struct{}{}:
				defer func() { <-p.semaphore }()
			case <-p.ctx.Done():
				p.record(Result[R]{ID: id, Err: p.ctx.Err()})
				return
			}
		}

		if err := p.ctx.Err(); err != nil {
			p.record(Result[R]{ID: id, Err: err})
			return
		}

		start := time.Now()
		value, err := fn(p.ctx)
		p.record(Result[R]{ID: id, Value: value, Err: err, Duration: time.Since(start)})
	}()
}

func (p *WorkerPool[R]) record(result Result[R]) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.results = append(p.results, result)
	if result.Err != nil {
		p.errors = append(p.errors, fmt.Errorf("%s: %w", result.ID, result.Err))
		if p.failFast {
			p.cancel()
		}
	}
}

// Wait waits for all submitted jobs to complete and returns the results in
// completion order.
func (p *WorkerPool[R]) Wait() ([]Result[R], []error) {
	p.wg.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()

	// Cancel the context to clean up
	p.cancel()

	results := make([]Result[R], len(p.results))
	copy(results, p.results)

	errors := make([]error, len(p.errors))
	copy(errors, p.errors)

	return results, errors
}

// Results returns a snapshot of current results without waiting.
// This is safe to call from multiple goroutines.
func (p *WorkerPool[R]) Results() []Result[R] {
	p.mu.Lock()
	defer p.mu.Unlock()

	results := make([]Result[R], len(p.results))
	copy(results, p.results)
	return results
}

// Cancel cancels all pending work in the pool.
func (p *WorkerPool[R]) Cancel() {
	p.cancel()
}
