package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter allows one action per key per window. The first caller sets the
// key with the window as TTL; later callers are told how long the key lives.
type RateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

func (l *RateLimiter) Acquire(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	k := ratelimitPrefix + key
	ok, err := l.client.SetNX(ctx, k, time.Now().UTC().Unix(), window).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit acquire: %w", err)
	}
	if ok {
		return true, 0, nil
	}

	ttl, err := l.client.TTL(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit ttl: %w", err)
	}
	// Keys left without an expiry get one, otherwise the key would never free up.
	if ttl < 0 {
		if err := l.client.Expire(ctx, k, window).Err(); err != nil {
			return false, 0, fmt.Errorf("rate limit expire: %w", err)
		}
		ttl = window
	}
	return false, ttl, nil
}

func (l *RateLimiter) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, ratelimitPrefix+key).Err(); err != nil {
		return fmt.Errorf("rate limit release: %w", err)
	}
	return nil
}
