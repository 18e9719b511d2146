package lock

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/storefront-engine/internal/resilience"
)

// ErrNotAcquired is returned when the lock stays held past MaxWait.
var ErrNotAcquired = errors.New("lock: not acquired")

const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`

// Locker provides a Redis-backed mutual exclusion lock. Stock mutations take
// it per option (or per product) so the read-check-write runs serially.
type Locker struct {
	R            *redis.Client
	Prefix       string
	RetryBackoff time.Duration
	// MaxWait bounds how long WithLock waits to acquire. Zero waits until ctx ends.
	MaxWait time.Duration
}

// StockKey names the lock guarding one stock counter.
func StockKey(scope, id string) string {
	return "stock:" + scope + ":" + id
}

// WithLock executes fn while holding a lock for the provided key. The lock is
// released even if fn returns an error, but only by the token that took it.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l.R == nil {
		return errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	retry := l.RetryBackoff
	if retry <= 0 {
		retry = 25 * time.Millisecond
	}
	key = l.Prefix + "lock:" + key
	token := uuid.NewString()

	acquireCtx := ctx
	if l.MaxWait > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, l.MaxWait)
		defer cancel()
	}

	for attempt := 1; ; attempt++ {
		ok, err := l.R.SetNX(acquireCtx, key, token, ttl).Result()
		if err != nil {
			if acquireCtx.Err() != nil && ctx.Err() == nil {
				return ErrNotAcquired
			}
			return err
		}
		if ok {
			defer l.release(context.Background(), key, token)
			return fn(ctx)
		}
		timer := time.NewTimer(resilience.Backoff(retry, min(attempt, maxBackoffDoublings), 0.2))
		select {
		case <-acquireCtx.Done():
			timer.Stop()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return ErrNotAcquired
		case <-timer.C:
		}
	}
}

const maxBackoffDoublings = 4

func (l Locker) release(ctx context.Context, key, token string) {
	if err := l.R.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unknown command") {
			_ = l.R.Del(ctx, key).Err()
		}
	}
}
