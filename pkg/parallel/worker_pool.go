// Package parallel runs independent jobs on a bounded pool of goroutines.
package parallel

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// PoolConfig configures the worker pool.
type PoolConfig struct {
	// MaxWorkers bounds concurrency. Default: NumCPU clamped to [2, 8].
	MaxWorkers int

	// Timeout bounds the whole run; zero means none.
	Timeout time.Duration

	CollectMetrics bool

	// OnProgress, when set, is called after each job with the number of
	// finished jobs. Calls are serialised.
	OnProgress func(completed, total int)
}

// DefaultPoolConfig returns a default pool configuration.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{MaxWorkers: min(max(runtime.NumCPU(), 2), 8)}
}

// WithWorkers returns a copy of c with n workers; n <= 0 keeps the default.
func (c PoolConfig) WithWorkers(n int) PoolConfig {
	if n > 0 {
		c.MaxWorkers = n
	}
	return c
}

// WithTimeout returns a copy of c with the given run timeout.
func (c PoolConfig) WithTimeout(d time.Duration) PoolConfig {
	c.Timeout = d
	return c
}

// WithMetrics returns a copy of c with metrics collection enabled.
func (c PoolConfig) WithMetrics() PoolConfig {
	c.CollectMetrics = true
	return c
}

// WithProgress returns a copy of c reporting progress to fn.
func (c PoolConfig) WithProgress(fn func(completed, total int)) PoolConfig {
	c.OnProgress = fn
	return c
}

// PoolMetrics holds execution statistics of the last run.
type PoolMetrics struct {
	TotalTasks     int64
	CompletedTasks int64
	FailedTasks    int64
	// SkippedTasks were never started because the context ended first.
	SkippedTasks  int64
	TotalDuration time.Duration
	AvgTaskTime   time.Duration
	MaxTaskTime   time.Duration
	MinTaskTime   time.Duration
}

// TaskResult holds the outcome of one input.
type TaskResult[T any, R any] struct {
	Input    T
	Result   R
	Error    error
	Duration time.Duration
}

// WorkerPool applies a function to many inputs concurrently.
type WorkerPool[T any, R any] struct {
	config  PoolConfig
	metrics PoolMetrics
	mu      sync.Mutex
}

// NewWorkerPool creates a new worker pool with the given configuration.
func NewWorkerPool[T any, R any](config PoolConfig) *WorkerPool[T, R] {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = DefaultPoolConfig().MaxWorkers
	}
	return &WorkerPool[T, R]{config: config}
}

// Workers returns the configured concurrency.
func (p *WorkerPool[T, R]) Workers() int {
	return p.config.MaxWorkers
}

// ExecuteFunc runs fn on every input and returns the results in input
// order. Inputs not started before the context ends get ctx.Err().
func (p *WorkerPool[T, R]) ExecuteFunc(ctx context.Context, inputs []T, fn func(ctx context.Context, input T) (R, error)) []TaskResult[T, R] {
	if len(inputs) == 0 {
		return nil
	}

	start := time.Now()
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	p.mu.Lock()
	p.metrics = PoolMetrics{}
	p.mu.Unlock()

	results := make([]TaskResult[T, R], len(inputs))
	started := make([]bool, len(inputs))
	jobs := make(chan int)
	completed := 0

	var wg sync.WaitGroup
	for w := 0; w < min(p.config.MaxWorkers, len(inputs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				taskStart := time.Now()
				result, err := fn(ctx, inputs[idx])
				duration := time.Since(taskStart)

				results[idx] = TaskResult[T, R]{
					Input:    inputs[idx],
					Result:   result,
					Error:    err,
					Duration: duration,
				}
				p.record(duration, err, &completed, len(inputs))
			}
		}()
	}

submit:
	for i := range inputs {
		select {
		case <-ctx.Done():
			break submit
		case jobs <- i:
			started[i] = true
		}
	}
	close(jobs)
	wg.Wait()

	skipped := int64(0)
	for i, ok := range started {
		if !ok {
			results[i] = TaskResult[T, R]{Input: inputs[i], Error: ctx.Err()}
			skipped++
		}
	}

	p.mu.Lock()
	p.metrics.SkippedTasks = skipped
	p.metrics.TotalDuration = time.Since(start)
	if n := p.metrics.CompletedTasks + p.metrics.FailedTasks; n > 0 {
		p.metrics.AvgTaskTime = p.metrics.TotalDuration / time.Duration(n)
	}
	p.mu.Unlock()

	return results
}

func (p *WorkerPool[T, R]) record(duration time.Duration, err error, completed *int, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	*completed++
	if p.config.OnProgress != nil {
		p.config.OnProgress(*completed, total)
	}
	if !p.config.CollectMetrics {
		return
	}

	p.metrics.TotalTasks++
	if err != nil {
		p.metrics.FailedTasks++
	} else {
		p.metrics.CompletedTasks++
	}
	if duration > p.metrics.MaxTaskTime {
		p.metrics.MaxTaskTime = duration
	}
	if p.metrics.MinTaskTime == 0 || duration < p.metrics.MinTaskTime {
		p.metrics.MinTaskTime = duration
	}
}

// Metrics returns the statistics of the last run. Task counters are only
// populated when CollectMetrics is set.
func (p *WorkerPool[T, R]) Metrics() PoolMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metrics
}
