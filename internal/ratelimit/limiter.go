// Package ratelimit throttles repeated login attempts per identifier.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter counts login attempts per key in a fixed redis window.
// A redis outage fails open: logins are never blocked by an
// unavailable limiter store.
type LoginLimiter struct {
	client      *redis.Client
	window      time.Duration
	maxAttempts int
}

// NewLoginLimiter creates a limiter allowing maxAttempts per window.
func NewLoginLimiter(client *redis.Client, window time.Duration, maxAttempts int) *LoginLimiter {
	return &LoginLimiter{
		client:      client,
		window:      window,
		maxAttempts: maxAttempts,
	}
}

// Allow records an attempt for key and reports whether it is within
// the limit.
func (l *LoginLimiter) Allow(ctx context.Context, key string) bool {
	redisKey := attemptKey(key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		slog.Warn("login limiter unavailable, allowing attempt", "error", err)
		return true
	}
	if count == 1 {
		// Without the expiry the counter would throttle the key
		// forever, so a failure here must not pass silently.
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			slog.Warn("failed to set login attempt window", "key", redisKey, "error", err)
		}
	}
	return count <= int64(l.maxAttempts)
}

// Reset clears the attempt counter for key, typically after a
// successful login.
func (l *LoginLimiter) Reset(ctx context.Context, key string) {
	if err := l.client.Del(ctx, attemptKey(key)).Err(); err != nil {
		slog.Warn("failed to reset login attempts", "error", err)
	}
}

func attemptKey(key string) string {
	return fmt.Sprintf("login_attempts:%s", key)
}
