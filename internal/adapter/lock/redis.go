package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"tradecore/pkg/id"
)

var ErrNotAcquired = errors.New("lock not acquired")

// release deletes the key only if we still own it.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a SET NX PX lock shared by every replica. The TTL bounds how long a
// crashed holder can block a trade.
type RedisLocker struct {
	rdb  *redis.Client
	ttl  time.Duration
	wait time.Duration
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{rdb: rdb, ttl: ttl, wait: 5 * time.Second}
}

// WithMaxWait bounds how long Lock polls for a busy key.
func (l *RedisLocker) WithMaxWait(d time.Duration) *RedisLocker {
	l.wait = d
	return l
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	rkey := "lock:" + key
	token := id.NewID32()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond
	b.MaxElapsedTime = l.wait

	err := backoff.Retry(func() error {
		ok, err := l.rdb.SetNX(ctx, rkey, token, l.ttl).Result()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return ErrNotAcquired
		}
		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", key, err)
	}

	return func() {
		// the caller's ctx may already be cancelled; the release must still go out
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = release.Run(rctx, l.rdb, []string{rkey}, token).Err()
	}, nil
}
