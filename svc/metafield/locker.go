package metafield

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Locker serializes writes per key. *redis.Locker satisfies it.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// LocalLocker is an in-process Locker. The ttl is ignored.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]chan struct{})}
}

func (l *LocalLocker) Lock(ctx context.Context, key string, _ time.Duration) (func(context.Context) error, error) {
	for {
		l.mu.Lock()
		held, busy := l.locks[key]
		if !busy {
			ch := make(chan struct{})
			l.locks[key] = ch
			l.mu.Unlock()
			var once sync.Once
			return func(context.Context) error {
				once.Do(func() {
					l.mu.Lock()
					delete(l.locks, key)
					l.mu.Unlock()
					close(ch)
				})
				return nil
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-held:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// ownerLockKey is the lock key guarding one owner's metafields.
func ownerLockKey(storeID fmt.Stringer, owner OwnerResource, ownerID int64) string {
	return fmt.Sprintf("metafields:%s:%s:%d", storeID, owner, ownerID)
}
