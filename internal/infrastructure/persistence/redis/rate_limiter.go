package redis

import (
	"context"
	"fmt"
)

// RateLimiter is a fixed-window request counter shared across instances.
// Each key gets an INCR-ed counter that expires after the window, so limits
// hold even when the API runs on multiple nodes.
type RateLimiter struct {
	cache *Cache
	limit int64
}

// NewRateLimiter creates a limiter allowing limit requests per
// TTLRateLimitWindow for each key.
func NewRateLimiter(cache *Cache, limit int) *RateLimiter {
	return &RateLimiter{cache: cache, limit: int64(limit)}
}

// Allow reports whether the key is under its limit for the current window.
// The first hit in a window sets the expiry; redis errors are returned so
// the caller can decide whether to fail open.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrCacheKeyEmpty
	}

	fullKey := RateLimitKey(key, "api")
	count, err := l.cache.Incr(ctx, fullKey)
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}

	if count == 1 {
		if err := l.cache.Expire(ctx, fullKey, TTLRateLimitWindow); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	return count <= l.limit, nil
}
