package dataflow

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Stream is a read-only channel of items.
type Stream[T any] <-chan T

// From creates a stream from a slice of data.
func From[T any](ctx context.Context, items ...T) Stream[T] {
	out := make(chan T, len(items))
	go func() {
		defer close(out)
		for _, item := range items {
			select {
			case <-ctx.Done():
				return
			case out <- item:
			}
		}
	}()
	return out
}

// Generate runs produce in its own goroutine and streams every emitted item.
// emit fails once ctx is done. The returned wait function blocks until
// produce returns and reports its error.
func Generate[T any](ctx context.Context, produce func(emit func(T) error) error, opts ...Option) (Stream[T], func() error) {
	cfg := newConfig(opts)
	out := make(chan T, cfg.bufferSize)
	done := make(chan struct{})
	var err error

	go func() {
		defer close(done)
		defer close(out)
		err = produce(func(v T) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case out <- v:
				return nil
			}
		})
	}()

	return out, func() error {
		<-done
		return err
	}
}

// Batch groups consecutive items into slices of up to size items. The last
// batch may be shorter.
func Batch[T any](ctx context.Context, input Stream[T], size int) Stream[[]T] {
	if size <= 0 {
		size = 1
	}
	out := make(chan []T)

	go func() {
		defer close(out)
		buf := make([]T, 0, size)
		send := func() bool {
			select {
			case <-ctx.Done():
				return false
			case out <- buf:
				buf = make([]T, 0, size)
				return true
			}
		}
		for item := range input {
			buf = append(buf, item)
			if len(buf) == size && !send() {
				return
			}
		}
		if len(buf) > 0 {
			send()
		}
	}()
	return out
}

// ForEach runs fn for every item with the configured workers and retries.
// After the first unhandled error the remaining items are drained without
// calling fn, and that error is returned.
func ForEach[T any](ctx context.Context, input Stream[T], fn func(context.Context, T) error, opts ...Option) error {
	cfg := newConfig(opts)

	var (
		g      errgroup.Group
		failed atomic.Bool
	)
	for i := 0; i < cfg.workers; i++ {
		g.Go(func() error {
			var firstErr error
			for item := range input {
				if failed.Load() || ctx.Err() != nil {
					continue
				}
				err := cfg.run(ctx, func() error { return fn(ctx, item) })
				if err == nil || (cfg.errorHandler != nil && cfg.errorHandler(err)) {
					continue
				}
				failed.Store(true)
				firstErr = err
			}
			return firstErr
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
