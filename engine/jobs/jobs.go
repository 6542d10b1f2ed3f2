package jobs

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")

// Pool fans batched index-range work out over a fixed number of workers.
// Batches write to disjoint ranges of the caller's output, so results are
// deterministic regardless of scheduling.
type Pool struct {
	numWorkers int
}

// NewPool creates a pool with the given parallelism; 0 means one worker
// per CPU.
func NewPool(numWorkers int) (*Pool, error) {
	if numWorkers == 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers < 0 {
		return nil, ErrNoWorkers
	}
	return &Pool{numWorkers: numWorkers}, nil
}

// Workers returns the pool's parallelism.
func (p *Pool) Workers() int {
	return p.numWorkers
}

// Run partitions [0, count) into batches of batchSize and executes fn over
// them in parallel. Cancellation is best-effort: the context is checked
// between batches, never mid-batch. Returns the context's error when the
// run was cut short.
func (p *Pool) Run(ctx context.Context, count, batchSize int, fn func(start, end int)) error {
	if count <= 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 256
	}

	batches := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < p.numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for start := range batches {
				end := start + batchSize
				if end > count {
					end = count
				}
				fn(start, end)
			}
		}()
	}

	var err error
feed:
	for start := 0; start < count; start += batchSize {
		// Checked separately first so an already-canceled context never
		// races the send.
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		default:
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case batches <- start:
		}
	}
	close(batches)
	wg.Wait()

	return err
}
