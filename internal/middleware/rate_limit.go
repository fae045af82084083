package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/parksanggeon/smart-recipe-generator/internal/logger"
	"github.com/parksanggeon/smart-recipe-generator/internal/types"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// Key prefix for Redis keys
	KeyPrefix string
}

// RateLimiter counts AI usage per user in fixed windows stored in Redis
type RateLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
	now    func() time.Time
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(redisClient *redis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		config: config,
		now:    time.Now,
	}
}

// NewGenerationQuota limits recipe generation and ingredient validation calls
func NewGenerationQuota(redisClient *redis.Client, limit int, window time.Duration) *RateLimiter {
	return NewRateLimiter(redisClient, RateLimitConfig{
		Window:    window,
		Limit:     limit,
		KeyPrefix: "rate_limit:ai_usage",
	})
}

func (rl *RateLimiter) key(userID string) (string, time.Time) {
	windowStart := rl.now().Truncate(rl.config.Window)
	return fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, userID, windowStart.Unix()), windowStart.Add(rl.config.Window)
}

// IsAllowed counts a request and reports whether it fits in the window.
// Returns: allowed, remaining requests, reset time, error
func (rl *RateLimiter) IsAllowed(ctx context.Context, userID string) (bool, int, time.Time, error) {
	key, resetTime := rl.key(userID)

	pipe := rl.redis.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, rl.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	count := int(incrCmd.Val())
	return count <= rl.config.Limit, rl.remaining(count), resetTime, nil
}

// CheckOnly checks if a request would be allowed without incrementing the counter
func (rl *RateLimiter) CheckOnly(ctx context.Context, userID string) (bool, int, time.Time, error) {
	key, resetTime := rl.key(userID)

	count, err := rl.redis.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		return true, rl.config.Limit, resetTime, nil
	}
	if err != nil {
		return false, 0, time.Time{}, err
	}

	// < rather than <= since this request has not been counted
	return count < rl.config.Limit, rl.remaining(count), resetTime, nil
}

// IncrementUsage increments the usage counter for a user
func (rl *RateLimiter) IncrementUsage(ctx context.Context, userID string) error {
	_, _, _, err := rl.IsAllowed(ctx, userID)
	return err
}

// Reached reports whether the user has used up the window
func (rl *RateLimiter) Reached(ctx context.Context, userID string) (bool, error) {
	allowed, _, _, err := rl.CheckOnly(ctx, userID)
	if err != nil {
		return false, err
	}
	return !allowed, nil
}

func (rl *RateLimiter) remaining(count int) int {
	if remaining := rl.config.Limit - count; remaining > 0 {
		return remaining
	}
	return 0
}

// QuotaMiddleware rejects requests from users over the limit and counts
// requests that completed without an error status. Redis failures let the
// request through.
func (rl *RateLimiter) QuotaMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(ContextUserID)
		if userID == "" {
			abortUnauthorized(c, "user not authenticated")
			return
		}

		ctx := c.Request.Context()
		allowed, remaining, resetTime, err := rl.CheckOnly(ctx, userID)
		if err != nil {
			logger.Warn("quota check failed", zap.String("user_id", userID), zap.Error(err))
			c.Header("X-RateLimit-Error", "rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("You have reached the limit of %d AI requests per %v", rl.config.Limit, rl.config.Window),
				"code":        types.ErrCodeLimitReached,
				"retry_after": int(time.Until(resetTime).Seconds()),
			})
			return
		}

		c.Next()

		if c.Writer.Status() < http.StatusBadRequest {
			if err := rl.IncrementUsage(context.WithoutCancel(ctx), userID); err != nil {
				logger.Warn("failed to count AI usage", zap.String("user_id", userID), zap.Error(err))
			}
		}
	}
}
