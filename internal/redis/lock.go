package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockPrefix = "lock:"

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

// NewLockStore creates a new LockStore. ttl bounds how long a crashed holder
// keeps the lock.
func NewLockStore(client *redis.Client, ttl time.Duration) *LockStore {
	return &LockStore{client: client, ttl: ttl, retry: 25 * time.Millisecond}
}

// TryLock attempts to acquire key once and returns the holder token.
// Returns false if the lock is already held.
func (s *LockStore) TryLock(ctx context.Context, key string) (string, bool, error) {
	token := uuid.New().String()
	ok, err := s.client.SetNX(ctx, lockPrefix+key, token, s.ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// Unlock releases key if token still owns it.
func (s *LockStore) Unlock(ctx context.Context, key, token string) error {
	return releaseScript.Run(ctx, s.client, []string{lockPrefix + key}, token).Err()
}

// Lock blocks until key is acquired or ctx is done.
func (s *LockStore) Lock(ctx context.Context, key string) (func(), error) {
	ticker := time.NewTicker(s.retry)
	defer ticker.Stop()

	for {
		token, ok, err := s.TryLock(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return func() {
				// Release even if the caller's context was cancelled meanwhile.
				if err := s.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
					slog.Warn("Failed to release lock", "key", key, "error", err)
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
