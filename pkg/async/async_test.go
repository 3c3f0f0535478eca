package async_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/metafields/pkg/async"
)

func TestAsync(t *testing.T) {
	t.Parallel()

	t.Run("returns the callback result", func(t *testing.T) {
		t.Parallel()
		f := async.Async(context.Background(), 42, func(_ context.Context, n int) (string, error) {
			return fmt.Sprintf("Number: %d", n), nil
		})

		res, err := f.Await()
		require.NoError(t, err)
		assert.Equal(t, "Number: 42", res)
		assert.True(t, f.IsComplete())
	})

	t.Run("pre-cancelled context skips the callback", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := false
		f := async.Async(ctx, 0, func(context.Context, int) (int, error) {
			called = true
			return 1, nil
		})

		_, err := f.Await()
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})
}

func TestWaitAll(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	ctx := context.Background()
	f1 := async.Async(ctx, 1, func(_ context.Context, n int) (int, error) { return n, nil })
	f2 := async.Async(ctx, 2, func(_ context.Context, n int) (int, error) { return 0, boom })
	f3 := async.Async(ctx, 3, func(_ context.Context, n int) (int, error) { return n, nil })

	res, err := async.WaitAll(f1, f2, f3)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{1, 0, 3}, res)
}

func TestMap(t *testing.T) {
	t.Parallel()

	t.Run("preserves order", func(t *testing.T) {
		t.Parallel()
		items := []int{5, 4, 3, 2, 1}
		res, err := async.Map(context.Background(), items, 2, func(_ context.Context, i int, n int) (int, error) {
			time.Sleep(time.Duration(n) * time.Millisecond)
			return n * 10, nil
		})
		require.NoError(t, err)
		assert.Equal(t, []int{50, 40, 30, 20, 10}, res)
	})

	t.Run("respects the concurrency limit", func(t *testing.T) {
		t.Parallel()
		var inFlight, peak atomic.Int32
		items := make([]int, 20)

		_, err := async.Map(context.Background(), items, 3, func(context.Context, int, int) (struct{}, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			inFlight.Add(-1)
			return struct{}{}, nil
		})
		require.NoError(t, err)
		assert.LessOrEqual(t, peak.Load(), int32(3))
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		res, err := async.Map(context.Background(), []int(nil), 4, func(context.Context, int, int) (int, error) {
			return 0, nil
		})
		assert.NoError(t, err)
		assert.Nil(t, res)
	})
}
