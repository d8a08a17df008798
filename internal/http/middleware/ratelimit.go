package middleware

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"studydocs/internal/metrics"
)

// rateLimitKey prefers the authenticated principal so users behind one NAT do not share a bucket,
// falling back to the client IP.
func rateLimitKey(c *fiber.Ctx) string {
	if caller, ok := callerFromLocals(c); ok && caller.ID() != "" {
		return "sub:" + caller.ID()
	}
	ip := c.IP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

// RateLimit enforces an in-memory token bucket per key.
// rps = allowed events per second, burst = maximum tokens in bucket.
func RateLimit(rps float64, burst int) fiber.Handler {
	// per-key limiter store
	var limiters sync.Map // map[string]*rate.Limiter

	return func(c *fiber.Ctx) error {
		key := rateLimitKey(c)
		v, ok := limiters.Load(key)
		if !ok {
			v, _ = limiters.LoadOrStore(key, rate.NewLimiter(rate.Limit(rps), burst))
		}
		if !v.(*rate.Limiter).Allow() {
			c.Set(fiber.HeaderRetryAfter, "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		return c.Next()
	}
}

// RedisRateLimit is a fixed-window limiter shared by every instance through Redis.
// Algorithm: INCR a per-window key and compare against allowed = floor(rps*windowSeconds)+burst.
// A nil client falls back to the in-memory limiter.
func RedisRateLimit(client *redis.Client, rps float64, burst int, window time.Duration) fiber.Handler {
	if client == nil {
		return RateLimit(rps, burst)
	}
	windowSeconds := int(window.Seconds())
	if windowSeconds <= 0 {
		windowSeconds = 1
	}
	allowedPerWindow := int64(rps*float64(windowSeconds)) + int64(burst)

	return func(c *fiber.Ctx) error {
		bucket := time.Now().Unix() / int64(windowSeconds)
		redisKey := fmt.Sprintf("rl:%s:%d", rateLimitKey(c), bucket)

		ctx := c.UserContext()
		cnt, err := client.Incr(ctx, redisKey).Result()
		if err != nil {
			return fmt.Errorf("rate limit check: %w", err)
		}
		if cnt == 1 {
			_ = client.Expire(ctx, redisKey, time.Duration(windowSeconds+1)*time.Second).Err()
		}
		if cnt > allowedPerWindow {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(windowSeconds))
			metrics.RateLimitRejected.WithLabelValues("redis").Inc()
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
		return c.Next()
	}
}
