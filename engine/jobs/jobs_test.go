package jobs

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoolDefaultsToNumCPU(t *testing.T) {
	pool, err := NewPool(0)
	require.NoError(t, err)
	assert.Greater(t, pool.Workers(), 0)
}

func TestNewPoolRejectsNegativeWorkers(t *testing.T) {
	_, err := NewPool(-1)
	assert.ErrorIs(t, err, ErrNoWorkers)
}

func TestRunCoversEveryIndexExactlyOnce(t *testing.T) {
	pool, err := NewPool(4)
	require.NoError(t, err)

	const count = 1000
	hits := make([]int32, count)
	var mu sync.Mutex

	err = pool.Run(context.Background(), count, 7, func(start, end int) {
		mu.Lock()
		defer mu.Unlock()
		for i := start; i < end; i++ {
			hits[i]++
		}
	})
	require.NoError(t, err)

	for i, n := range hits {
		assert.Equal(t, int32(1), n, "index %d", i)
	}
}

func TestRunBatchesWriteDisjointRanges(t *testing.T) {
	pool, err := NewPool(4)
	require.NoError(t, err)

	// No mutex: disjoint output ranges mean the race detector stays quiet.
	const count = 512
	out := make([]int, count)
	err = pool.Run(context.Background(), count, 32, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = i * 2
		}
	})
	require.NoError(t, err)

	for i, v := range out {
		assert.Equal(t, i*2, v)
	}
}

func TestRunZeroCountIsNoop(t *testing.T) {
	pool, err := NewPool(2)
	require.NoError(t, err)

	called := false
	require.NoError(t, pool.Run(context.Background(), 0, 16, func(_, _ int) { called = true }))
	assert.False(t, called)
}

func TestRunCanceledContext(t *testing.T) {
	pool, err := NewPool(2)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = pool.Run(ctx, 100, 10, func(_, _ int) {})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunDefaultBatchSize(t *testing.T) {
	pool, err := NewPool(2)
	require.NoError(t, err)

	total := 0
	var mu sync.Mutex
	err = pool.Run(context.Background(), 10, 0, func(start, end int) {
		mu.Lock()
		total += end - start
		mu.Unlock()
	})
	require.NoError(t, err)
	assert.Equal(t, 10, total)
}
