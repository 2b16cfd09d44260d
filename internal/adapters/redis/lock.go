package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/tendril/pkg/ports"
)

// lockPollInterval is how often a blocked Lock retries SETNX.
const lockPollInterval = 50 * time.Millisecond

// releaseScript deletes the lock key only while we still hold it. An expired
// lock may have been re-acquired by another instance; deleting blindly would
// release theirs.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

// Locker implements ports.DistributedLocker with a SETNX-held key that
// expires via TTL. Contended locks are polled until acquired or the context
// ends.
type Locker struct {
	client *backend.Client
	prefix string
}

// NewLocker creates a distributed locker on the given client. Lock keys take
// the form <prefix>lock:<key>.
func NewLocker(client *backend.Client, prefix string) *Locker {
	return &Locker{client: client, prefix: prefix}
}

func (l *Locker) key(key string) string {
	return l.prefix + "lock:" + key
}

// Lock blocks until the lock is acquired or ctx ends. The returned unlock
// releases the lock; a crashed holder's lock expires via the TTL.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	lockKey := l.key(key)
	token := uuid.NewString()

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	unlock := func(ctx context.Context) error {
		if err := l.client.Eval(ctx, releaseScript, []string{lockKey}, token).Err(); err != nil {
			return fmt.Errorf("failed to release lock: %w", err)
		}
		return nil
	}
	return unlock, nil
}
