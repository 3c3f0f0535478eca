package async

import (
	"context"
	"sync"
)

// Future represents the result of an asynchronous computation.
type Future[U any] struct {
	result U
	err    error
	once   sync.Once
	done   chan struct{}
}

// Await waits for the asynchronous function to complete and returns its result and error.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// IsComplete checks if the asynchronous function is complete without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Async executes fn in its own goroutine and returns a Future.
func Async[T any, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		// Early exit prevents goroutine work when context is pre-canceled
		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}

		res, err := fn(ctx, param)
		f.once.Do(func() {
			f.result = res
			f.err = err
		})
	}()

	return f
}

// WaitAll waits for all futures and returns their results in order together
// with the first error in index order.
func WaitAll[U any](futures ...*Future[U]) ([]U, error) {
	results := make([]U, len(futures))

	var firstErr error
	for i, future := range futures {
		result, err := future.Await()
		results[i] = result
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return results, firstErr
}

// Map applies fn to every item with at most limit calls in flight.
// Results keep the order of items. A limit below 1 runs calls one at a time.
func Map[T any, U any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, index int, item T) (U, error)) ([]U, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if limit < 1 {
		limit = 1
	}

	sem := make(chan struct{}, limit)
	futures := make([]*Future[U], len(items))
	for i, item := range items {
		futures[i] = Async(ctx, i, func(ctx context.Context, idx int) (U, error) {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				var zero U
				return zero, ctx.Err()
			}
			defer func() { <-sem }()
			return fn(ctx, idx, item)
		})
	}

	return WaitAll(futures...)
}
