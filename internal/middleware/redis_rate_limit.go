package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/cache"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RedisRateLimitMiddleware counts requests in Redis so the limit holds
// across server instances. When Redis is unavailable the middleware
// falls back to a process-local token bucket with the same settings
// rather than letting traffic through unmetered.
func RedisRateLimitMiddleware(maxRequests int, window time.Duration) gin.HandlerFunc {
	fallback := NewRateLimiter(RateLimitConfig{Limit: maxRequests, Window: window})

	// Each limit class gets its own counter; otherwise the strict auth
	// limiter and the default limiter would share one budget per IP.
	scope := fmt.Sprintf("%d:%s", maxRequests, window)

	return func(c *gin.Context) {
		redisClient := cache.GetRedisClient()
		if redisClient == nil {
			fallback(c)
			return
		}

		clientIP := c.ClientIP()
		key := fmt.Sprintf("rate_limit:%s:%s", scope, clientIP)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		current, err := redisClient.GetInt(ctx, key)
		if err != nil && !cache.IsNil(err) {
			// A broken limiter must not open the API to unmetered traffic
			logger.Log.Error("Rate limit check failed, rejecting request",
				logger.WithIP(clientIP),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(503, gin.H{"error": "service temporarily unavailable"})
			return
		}

		if current >= int64(maxRequests) {
			RecordRateLimitExceeded(c.FullPath(), c.Request.Method)
			logger.Log.Warn("Rate limit exceeded",
				logger.WithIP(clientIP),
				zap.Int("max_requests", maxRequests),
				zap.Int64("current_requests", current),
			)
			c.AbortWithStatusJSON(429, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": window.Seconds(),
			})
			return
		}

		count, err := redisClient.IncrBy(ctx, key, 1)
		if err != nil {
			logger.Log.Error("Rate limit increment failed, rejecting request",
				logger.WithIP(clientIP),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(503, gin.H{"error": "service temporarily unavailable"})
			return
		}

		// First hit in this window starts the clock
		if count == 1 {
			if err := redisClient.Expire(ctx, key, window); err != nil {
				logger.Log.Warn("Failed to set rate limit expiration",
					logger.WithIP(clientIP),
					zap.Error(err),
				)
			}
		}

		c.Next()
	}
}
