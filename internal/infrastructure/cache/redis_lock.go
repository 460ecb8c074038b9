package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// lock defaults; reconciliation holds the lock only for the duration of one
// submit or cancel.
const (
	lockTTL           = 30 * time.Second
	lockRetryInterval = 50 * time.Millisecond
	lockWaitTimeout   = 5 * time.Second
)

// releaseScript deletes the lock only when the caller still owns it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker provides per-contract advisory locks over Redis SETNX.
// Concurrent payment submits against one contract serialize on the lock so
// FIFO reconciliation never interleaves.
type RedisLocker struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisLocker creates a locker over an existing Redis client
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client, keyPrefix: "lock:contract:"}
}

// Acquire blocks until the lock for the key is held or the wait times out.
// The returned release function is safe to call once.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	lockKey := l.keyPrefix + key

	deadline := time.Now().Add(lockWaitTimeout)
	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out waiting for lock %s", key)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{lockKey}, token).Err()
	}
	return release, nil
}
