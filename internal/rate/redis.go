package rate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable indicates the shared limiter backend is unreachable.
var ErrRedisUnavailable = errors.New("rate limiter backend unavailable")

// RedisStamps is the shared-backend counterpart of [StampLimiter] for
// deployments running more than one process behind the same callers. It
// keeps the last-seen stamp per key in Redis and applies the same window
// arithmetic, including the grace-boundary snap-back.
//
// The read-then-write sequence is not atomic across processes; like the
// in-memory limiter this is best-effort throttling, not a hard guarantee.
type RedisStamps struct {
	redis  redis.UniversalClient
	prefix string
	grace  int
	now    func() time.Time
}

// NewRedisStamps creates a limiter on the given client. prefix namespaces
// the keys; a non-positive grace falls back to [DefaultGraceSeconds].
func NewRedisStamps(client redis.UniversalClient, prefix string, graceSeconds int) *RedisStamps {
	if prefix == "" {
		prefix = "brl"
	}
	if graceSeconds <= 0 {
		graceSeconds = DefaultGraceSeconds
	}
	return &RedisStamps{
		redis:  client,
		prefix: prefix,
		grace:  graceSeconds,
		now:    time.Now,
	}
}

// SetClock overrides the limiter's clock. Intended for tests.
func (l *RedisStamps) SetClock(now func() time.Time) {
	l.now = now
}

func (l *RedisStamps) key(key string) string {
	return l.prefix + ":" + key
}

// CheckAndStamp mirrors [StampLimiter.CheckAndStamp] against Redis. Stamps
// carry a TTL of limit plus grace so idle keys clean themselves up.
func (l *RedisStamps) CheckAndStamp(ctx context.Context, key string, limitSeconds int) (int, error) {
	if limitSeconds <= 0 {
		return 0, nil
	}

	now := l.now()
	ttl := time.Duration(limitSeconds+l.grace) * time.Second

	raw, err := l.redis.Get(ctx, l.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			if err := l.stamp(ctx, key, now, ttl); err != nil {
				return 0, err
			}
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	lastNanos, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// Corrupt stamp: overwrite rather than lock the caller out.
		if err := l.stamp(ctx, key, now, ttl); err != nil {
			return 0, err
		}
		return 0, nil
	}
	last := time.Unix(0, lastNanos)

	span := last.Add(time.Duration(limitSeconds) * time.Second).Sub(now)
	surplus := int(floorSeconds(span))

	if elapsed := limitSeconds - surplus; elapsed > 0 && elapsed < l.grace {
		if err := l.stamp(ctx, key, now, ttl); err != nil {
			return 0, err
		}
		return limitSeconds, nil
	}

	if surplus > 0 {
		return surplus, nil
	}

	if err := l.stamp(ctx, key, now, ttl); err != nil {
		return 0, err
	}
	return 0, nil
}

func (l *RedisStamps) stamp(ctx context.Context, key string, now time.Time, ttl time.Duration) error {
	if err := l.redis.Set(ctx, l.key(key), strconv.FormatInt(now.UnixNano(), 10), ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
