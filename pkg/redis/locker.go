package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a mutex keyed by string, shared across processes through Redis.
// Each lock expires after its TTL so a crashed holder cannot block others forever.
type Locker struct {
	client       redis.UniversalClient
	prefix       string
	pollInterval time.Duration
}

// NewLocker creates a Locker using the lock settings from cfg.
func NewLocker(client redis.UniversalClient, cfg Config) *Locker {
	poll := cfg.LockPollInterval
	if poll <= 0 {
		poll = 25 * time.Millisecond
	}
	return &Locker{
		client:       client,
		prefix:       cfg.LockPrefix,
		pollInterval: poll,
	}
}

// Lock blocks until key is acquired or ctx is done. The returned function
// releases the lock; calling it after the TTL expired returns ErrLockNotHeld.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	token := uuid.NewString()
	fullKey := l.prefix + key

	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
		if err != nil {
			return nil, errors.Join(ErrLockNotAcquired, err)
		}
		if ok {
			return func(ctx context.Context) error {
				n, err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Int()
				if err != nil {
					return err
				}
				if n == 0 {
					return ErrLockNotHeld
				}
				return nil
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrLockNotAcquired, ctx.Err())
		case <-time.After(l.pollInterval):
		}
	}
}
