package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool_ExecuteFunc(t *testing.T) {
	pool := NewWorkerPool[int, int](DefaultPoolConfig().WithWorkers(3))

	inputs := []int{1, 2, 3, 4, 5, 6, 7}
	results := pool.ExecuteFunc(context.Background(), inputs, func(ctx context.Context, input int) (int, error) {
		return input * 2, nil
	})

	require.Len(t, results, len(inputs))
	for i, r := range results {
		assert.NoError(t, r.Error)
		assert.Equal(t, inputs[i], r.Input)
		assert.Equal(t, inputs[i]*2, r.Result)
	}
}

func TestWorkerPool_Empty(t *testing.T) {
	pool := NewWorkerPool[int, int](DefaultPoolConfig())
	assert.Nil(t, pool.ExecuteFunc(context.Background(), nil, func(context.Context, int) (int, error) {
		return 0, nil
	}))
}

func TestWorkerPool_BoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool[int, int](PoolConfig{MaxWorkers: 2})

	var running, peak atomic.Int32
	pool.ExecuteFunc(context.Background(), make([]int, 20), func(ctx context.Context, _ int) (int, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		running.Add(-1)
		return 0, nil
	})

	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, 2, pool.Workers())
}

func TestWorkerPool_CancelledContextSkipsTasks(t *testing.T) {
	pool := NewWorkerPool[int, int](DefaultPoolConfig().WithMetrics())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	results := pool.ExecuteFunc(ctx, []int{1, 2, 3}, func(ctx context.Context, input int) (int, error) {
		calls.Add(1)
		return input, nil
	})

	require.Len(t, results, 3)
	skipped := 0
	for i, r := range results {
		assert.Equal(t, i+1, r.Input)
		if errors.Is(r.Error, context.Canceled) {
			skipped++
		}
	}
	assert.Equal(t, 3, skipped+int(calls.Load()))
	assert.Equal(t, int64(skipped), pool.Metrics().SkippedTasks)
}

func TestWorkerPool_Timeout(t *testing.T) {
	pool := NewWorkerPool[int, int](PoolConfig{MaxWorkers: 1, Timeout: 20 * time.Millisecond})

	results := pool.ExecuteFunc(context.Background(), make([]int, 10), func(ctx context.Context, input int) (int, error) {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Second):
			return input, nil
		}
	})

	for _, r := range results {
		assert.ErrorIs(t, r.Error, context.DeadlineExceeded)
	}
}

func TestWorkerPool_Metrics(t *testing.T) {
	pool := NewWorkerPool[int, int](DefaultPoolConfig().WithMetrics())

	boom := errors.New("boom")
	pool.ExecuteFunc(context.Background(), []int{1, 2, 3, 4, 5}, func(ctx context.Context, input int) (int, error) {
		if input%2 == 0 {
			return 0, boom
		}
		return input, nil
	})

	m := pool.Metrics()
	assert.Equal(t, int64(5), m.TotalTasks)
	assert.Equal(t, int64(3), m.CompletedTasks)
	assert.Equal(t, int64(2), m.FailedTasks)
	assert.Equal(t, int64(0), m.SkippedTasks)
	assert.LessOrEqual(t, m.MinTaskTime, m.MaxTaskTime)
	assert.Greater(t, m.TotalDuration, time.Duration(0))
}

func TestWorkerPool_Progress(t *testing.T) {
	var seen []int
	cfg := DefaultPoolConfig().WithProgress(func(completed, total int) {
		assert.Equal(t, 4, total)
		seen = append(seen, completed)
	})
	pool := NewWorkerPool[int, int](cfg)

	pool.ExecuteFunc(context.Background(), []int{1, 2, 3, 4}, func(ctx context.Context, input int) (int, error) {
		return input, nil
	})

	assert.Equal(t, []int{1, 2, 3, 4}, seen)
}

func TestPoolConfig(t *testing.T) {
	cfg := DefaultPoolConfig()
	assert.GreaterOrEqual(t, cfg.MaxWorkers, 2)
	assert.LessOrEqual(t, cfg.MaxWorkers, 8)

	assert.Equal(t, cfg.MaxWorkers, cfg.WithWorkers(0).MaxWorkers)
	assert.Equal(t, 5, cfg.WithWorkers(5).MaxWorkers)
	assert.Equal(t, time.Second, cfg.WithTimeout(time.Second).Timeout)
	assert.True(t, cfg.WithMetrics().CollectMetrics)
	assert.False(t, cfg.CollectMetrics)
}
