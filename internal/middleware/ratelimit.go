package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	Limit  int           // requests per window
	Window time.Duration // window duration
	// KeyFunc derives the bucket key from the request. Defaults to
	// client IP when nil.
	KeyFunc func(c *gin.Context) string
}

func clientIPKey(c *gin.Context) string {
	return c.ClientIP()
}

// DefaultRateLimitConfig covers general browsing endpoints
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Limit: 100, Window: time.Minute, KeyFunc: clientIPKey}
}

// AuthRateLimitConfig is strict: login and register are brute-force targets
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Limit: 10, Window: time.Minute, KeyFunc: clientIPKey}
}

// UploadRateLimitConfig bounds note and avatar uploads
func UploadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Limit: 20, Window: time.Minute, KeyFunc: clientIPKey}
}

// SearchRateLimitConfig bounds search queries, which hit Elasticsearch
func SearchRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Limit: 100, Window: time.Minute, KeyFunc: clientIPKey}
}

// TokenBucket refills continuously rather than resetting per window,
// so a client that paces requests never sees a hard cliff.
type TokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewTokenBucket creates a full bucket
func NewTokenBucket(maxTokens, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow consumes a token if one is available
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	tb.tokens = min(tb.maxTokens, tb.tokens+now.Sub(tb.lastRefill).Seconds()*tb.refillRate)
	tb.lastRefill = now

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// GetRetryAfter returns seconds until the next token is available
func (tb *TokenBucket) GetRetryAfter() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if tb.tokens >= 1 {
		return 0
	}
	return int((1-tb.tokens)/tb.refillRate) + 1
}

func (tb *TokenBucket) idleSince(cutoff time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.lastRefill.Before(cutoff)
}

// RateLimiter keeps one token bucket per key
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*TokenBucket
	config  RateLimitConfig
}

// NewRateLimiter creates an in-memory rate limiting middleware
func NewRateLimiter(config RateLimitConfig) gin.HandlerFunc {
	rl := &RateLimiter{
		buckets: make(map[string]*TokenBucket),
		config:  config,
	}
	go rl.evictIdle()

	keyFunc := config.KeyFunc
	if keyFunc == nil {
		keyFunc = clientIPKey
	}

	return func(c *gin.Context) {
		if !rl.Allow(keyFunc(c)) {
			RecordRateLimitExceeded(c.FullPath(), c.Request.Method)
			retryAfter := rl.GetRetryAfter(keyFunc(c))
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
			c.Header("X-RateLimit-Remaining", "0")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": retryAfter,
			})
			return
		}
		c.Next()
	}
}

// Allow checks whether the key may make a request
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	bucket, exists := rl.buckets[key]
	if !exists {
		refillRate := float64(rl.config.Limit) / rl.config.Window.Seconds()
		bucket = NewTokenBucket(float64(rl.config.Limit), refillRate)
		rl.buckets[key] = bucket
	}
	rl.mu.Unlock()

	return bucket.Allow()
}

// GetRetryAfter returns the wait for a key, in seconds
func (rl *RateLimiter) GetRetryAfter(key string) int {
	rl.mu.Lock()
	bucket, exists := rl.buckets[key]
	rl.mu.Unlock()

	if !exists {
		return 1
	}
	return bucket.GetRetryAfter()
}

// evictIdle drops buckets that have seen no traffic for several
// windows; they are recreated full on the next request anyway.
func (rl *RateLimiter) evictIdle() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-3 * rl.config.Window)
		rl.mu.Lock()
		for key, bucket := range rl.buckets {
			if bucket.idleSince(cutoff) {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit returns a middleware with default configuration
func RateLimit() gin.HandlerFunc {
	return NewRateLimiter(DefaultRateLimitConfig())
}

// RateLimitAuth returns a middleware for auth endpoints
func RateLimitAuth() gin.HandlerFunc {
	return NewRateLimiter(AuthRateLimitConfig())
}

// RateLimitUpload returns a middleware for upload endpoints
func RateLimitUpload() gin.HandlerFunc {
	return NewRateLimiter(UploadRateLimitConfig())
}

// RateLimitSearch returns a middleware for search endpoints
func RateLimitSearch() gin.HandlerFunc {
	return NewRateLimiter(SearchRateLimitConfig())
}

// The Smart variants count in Redis so limits hold across instances;
// the Redis middleware falls back to in-memory buckets when it is down.

// RateLimitSmartDefault returns the default config backed by Redis
func RateLimitSmartDefault() gin.HandlerFunc {
	cfg := DefaultRateLimitConfig()
	return RedisRateLimitMiddleware(cfg.Limit, cfg.Window)
}

// RateLimitSmartAuth returns the auth config backed by Redis
func RateLimitSmartAuth() gin.HandlerFunc {
	cfg := AuthRateLimitConfig()
	return RedisRateLimitMiddleware(cfg.Limit, cfg.Window)
}

// RateLimitSmartUpload returns the upload config backed by Redis
func RateLimitSmartUpload() gin.HandlerFunc {
	cfg := UploadRateLimitConfig()
	return RedisRateLimitMiddleware(cfg.Limit, cfg.Window)
}

// RateLimitSmartSearch returns the search config backed by Redis
func RateLimitSmartSearch() gin.HandlerFunc {
	cfg := SearchRateLimitConfig()
	return RedisRateLimitMiddleware(cfg.Limit, cfg.Window)
}
