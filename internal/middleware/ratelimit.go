package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"wanderlust/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// CheckRateLimit counts one hit for resource/id and reports whether it is within limit.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// RateLimiter builds per-route limits backed by Redis.
type RateLimiter struct {
	rdb     *redis.Client
	enabled bool
}

// NewRateLimiter returns a limiter for env. Limits are skipped in development,
// test and stress environments so local workflows are not throttled.
func NewRateLimiter(rdb *redis.Client, env string) *RateLimiter {
	enabled := true
	switch env {
	case "", "test", "development", "stress":
		enabled = false
	}
	return &RateLimiter{rdb: rdb, enabled: enabled}
}

// Limit enforces limit requests per window for the named route, failing open.
func (rl *RateLimiter) Limit(name string, limit int, window time.Duration) fiber.Handler {
	return rl.LimitWithPolicy(name, limit, window, FailOpen)
}

// LimitWithPolicy is Limit with an explicit policy for an unreachable store.
// Callers are keyed by authenticated user when known, otherwise by IP.
func (rl *RateLimiter) LimitWithPolicy(name string, limit int, window time.Duration, policy FailPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rl == nil || !rl.enabled {
			return c.Next()
		}

		key := "ip:" + c.IP()
		if id, ok := IdentityFrom(c); ok {
			key = fmt.Sprintf("user:%d", id.UserID)
		}

		allowed, err := CheckRateLimit(c.UserContext(), rl.rdb, name, key, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable",
					slog.String("resource", name),
					slog.String("error", err.Error()),
				)
				return models.RespondWithError(c, fiber.StatusServiceUnavailable,
					&models.AppError{Code: models.CodeUpstream, Message: "Rate limit unavailable"})
			}
			return c.Next()
		}

		if !allowed {
			c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", int(window.Seconds())))
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				&models.AppError{Code: "RATE_LIMITED", Message: "Too many requests, please try again later."})
		}
		return c.Next()
	}
}
