package cache_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/metafields/pkg/cache"
)

func TestLRUCache_Basic(t *testing.T) {
	t.Run("put and get", func(t *testing.T) {
		c := cache.NewLRUCache[string, int](3)

		c.Put("a", 1)
		c.Put("b", 2)

		val, ok := c.Get("a")
		assert.True(t, ok)
		assert.Equal(t, 1, val)
		assert.Equal(t, 2, c.Len())
	})

	t.Run("get non-existent", func(t *testing.T) {
		c := cache.NewLRUCache[string, int](3)

		val, ok := c.Get("missing")
		assert.False(t, ok)
		assert.Equal(t, 0, val)
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		c := cache.NewLRUCache[string, int](2)

		c.Put("a", 1)
		c.Put("b", 2)
		_, _ = c.Get("a")
		c.Put("c", 3)

		_, ok := c.Get("b")
		assert.False(t, ok)
		_, ok = c.Get("a")
		assert.True(t, ok)
		assert.Equal(t, 2, c.Len())
	})

	t.Run("remove", func(t *testing.T) {
		c := cache.NewLRUCache[string, int](2)
		c.Put("a", 1)

		assert.True(t, c.Remove("a"))
		assert.False(t, c.Remove("a"))
		assert.Equal(t, 0, c.Len())
	})

	t.Run("panics on non-positive capacity", func(t *testing.T) {
		assert.Panics(t, func() { cache.NewLRUCache[string, int](0) })
	})
}

func TestLRUCache_GetOrCreate(t *testing.T) {
	t.Run("creates once", func(t *testing.T) {
		c := cache.NewLRUCache[string, int](2)
		calls := 0
		create := func() (int, error) {
			calls++
			return 42, nil
		}

		v, err := c.GetOrCreate("k", create)
		require.NoError(t, err)
		assert.Equal(t, 42, v)

		v, err = c.GetOrCreate("k", create)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
		assert.Equal(t, 1, calls)
	})

	t.Run("does not cache failures", func(t *testing.T) {
		c := cache.NewLRUCache[string, int](2)
		boom := errors.New("boom")

		_, err := c.GetOrCreate("k", func() (int, error) { return 0, boom })
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("concurrent access", func(t *testing.T) {
		c := cache.NewLRUCache[int, int](16)
		var wg sync.WaitGroup
		for i := range 64 {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				v, err := c.GetOrCreate(n%8, func() (int, error) { return n % 8, nil })
				assert.NoError(t, err)
				assert.Equal(t, n%8, v)
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 8, c.Len())
	})
}
