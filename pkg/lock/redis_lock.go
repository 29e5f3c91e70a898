// Package lock provides a Redis-backed mutual exclusion lock shared by the
// scheduler replicas.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"clickboard/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	DefaultTTL         = 30 * time.Second
	acquireTimeout     = 5 * time.Second
	renewInterval      = 10 * time.Second
	defaultMaxHoldTime = 3 * time.Minute
)

var (
	// only delete the key when it still carries our token
	unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

	renewScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0`)
)

// RedisLock is a SET NX lock with background renewal. A nil client puts the
// lock in single-instance mode where TryLock always succeeds.
type RedisLock struct {
	client  *redis.Client
	key     string
	token   string
	ttl     time.Duration
	maxHold time.Duration

	mu         sync.Mutex
	held       bool
	acquiredAt time.Time
	stopRenew  chan struct{}
}

// Option customizes a RedisLock.
type Option func(*RedisLock)

// WithTTL sets the key expiry. Renewal runs well inside it.
func WithTTL(ttl time.Duration) Option {
	return func(l *RedisLock) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithMaxHold bounds how long renewal keeps a lock alive.
func WithMaxHold(d time.Duration) Option {
	return func(l *RedisLock) {
		if d > 0 {
			l.maxHold = d
		}
	}
}

// New creates a lock on key. Each instance gets its own token.
func New(client *redis.Client, key string, opts ...Option) *RedisLock {
	l := &RedisLock{
		client:  client,
		key:     key,
		token:   fmt.Sprintf("%s-%s", key, uuid.NewString()),
		ttl:     DefaultTTL,
		maxHold: defaultMaxHoldTime,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Key returns the Redis key guarded by this lock.
func (l *RedisLock) Key() string { return l.key }

// TryLock attempts to take the lock without waiting. Renewal stops when ctx
// is done or Unlock is called.
func (l *RedisLock) TryLock(ctx context.Context) (bool, error) {
	if l.client == nil {
		l.mu.Lock()
		l.held = true
		l.mu.Unlock()
		return true, nil
	}

	acquireCtx, cancel := context.WithTimeout(ctx, acquireTimeout)
	defer cancel()

	ok, err := l.client.SetNX(acquireCtx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", l.key, err)
	}
	if !ok {
		logger.DebugCtx(ctx, "lock %s held by another instance", l.key)
		return false, nil
	}

	stop := make(chan struct{})
	l.mu.Lock()
	l.held = true
	l.acquiredAt = time.Now()
	l.stopRenew = stop
	l.mu.Unlock()

	go l.renew(ctx, stop)

	logger.DebugCtx(ctx, "lock %s acquired", l.key)
	return true, nil
}

// Unlock releases the lock if this instance holds it.
func (l *RedisLock) Unlock(ctx context.Context) error {
	l.mu.Lock()
	if !l.held {
		l.mu.Unlock()
		return nil
	}
	l.held = false
	if l.stopRenew != nil {
		close(l.stopRenew)
		l.stopRenew = nil
	}
	l.mu.Unlock()

	if l.client == nil {
		return nil
	}

	res, err := unlockScript.Run(ctx, l.client, []string{l.key}, l.token).Int64()
	if err != nil {
		return fmt.Errorf("release lock %s: %w", l.key, err)
	}
	if res == 0 {
		logger.WarnCtx(ctx, "lock %s expired or was taken over before release", l.key)
	}
	return nil
}

// IsHeld reports whether this instance believes it holds the lock.
func (l *RedisLock) IsHeld() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

func (l *RedisLock) renew(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(renewInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.mu.Lock()
			held := time.Since(l.acquiredAt)
			l.mu.Unlock()
			if held > l.maxHold {
				// stop extending; the key expires on its own
				logger.WarnCtx(ctx, "lock %s held for %.0fs, no longer renewing", l.key, held.Seconds())
				return
			}

			res, err := renewScript.Run(ctx, l.client, []string{l.key}, l.token, l.ttl.Milliseconds()).Int64()
			if err != nil {
				logger.WarnCtx(ctx, "failed to renew lock %s: %v", l.key, err)
				continue
			}
			if res == 0 {
				logger.WarnCtx(ctx, "lock %s lost", l.key)
				l.mu.Lock()
				if l.stopRenew == stop {
					l.held = false
					l.stopRenew = nil
				}
				l.mu.Unlock()
				return
			}
		}
	}
}
