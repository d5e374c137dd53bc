package batch

import (
	"context"
	"errors"
	"sync"
)

// ErrBadConfig is returned for non-positive batch sizes or worker counts.
var ErrBadConfig = errors.New("batch: size and workers must be positive")

// Run partitions items into consecutive batches of batchSize (the last may
// be shorter) and processes them strictly in sequence. Within a batch, fn
// runs on a pool of at most workers goroutines; the next batch does not
// start until every item in the current batch has finished.
//
// This bounds in-flight work to workers regardless of the total item count,
// and bounds memory to one batch. Items within a batch complete in no
// particular order; batches complete in listing order.
//
// fn must not panic and must report per-item failures through its own side
// channel; Run treats every invocation as complete when it returns.
// Cancellation is only observed between batches: once a batch has started,
// all of its items run to completion.
func Run[T any](ctx context.Context, items []T, batchSize, workers int, fn func(context.Context, T)) error {
	if batchSize <= 0 || workers <= 0 {
		return ErrBadConfig
	}

	for start := 0; start < len(items); start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}
		runBatch(ctx, items[start:end], workers, fn)
	}

	return ctx.Err()
}

// runBatch fans one batch out to a bounded worker pool and blocks until the
// whole batch has drained.
func runBatch[T any](ctx context.Context, batch []T, workers int, fn func(context.Context, T)) {
	if workers > len(batch) {
		workers = len(batch)
	}

	jobs := make(chan T)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				fn(ctx, item)
			}
		}()
	}

	for _, item := range batch {
		jobs <- item
	}
	close(jobs)

	wg.Wait()
}
