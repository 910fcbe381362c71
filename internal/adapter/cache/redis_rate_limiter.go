package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter counts requests per client in fixed windows. The first
// INCR in a window sets the expiry, so idle clients cost nothing.
type RedisRateLimiter struct {
	rdb    *redis.Client
	window time.Duration
	max    int64
}

func NewRedisRateLimiter(rdb *redis.Client, window time.Duration, max int64) *RedisRateLimiter {
	return &RedisRateLimiter{rdb: rdb, window: window, max: max}
}

// Allow reports whether the client identified by key may proceed. Redis
// failures fail open: a broken limiter must not take the API down.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	rk := "ratelimit:" + key
	n, err := l.rdb.Incr(ctx, rk).Result()
	if err != nil {
		return true, err
	}
	if n == 1 {
		_ = l.rdb.Expire(ctx, rk, l.window).Err()
	}
	return n <= l.max, nil
}
