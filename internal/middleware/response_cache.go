package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/cache"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ResponseCacheMiddleware caches successful GET responses through the
// cache façade, so responses survive in Redis when it is up and in the
// in-process store when it is not. Only 2xx responses with a body are
// cached. Adds X-Cache: HIT/MISS for debugging.
//
// The key is response:{path} plus the raw query and, for authenticated
// requests, the user ID, so personalized payloads never leak across
// users.
func ResponseCacheMiddleware(ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		store := cache.GetStore()
		key := responseCacheKey(c)
		ctx := c.Request.Context()

		start := time.Now()
		if body, ok := store.Get(ctx, key); ok {
			RecordCacheHit("response_cache")
			RecordCacheOperation("GET", "response_cache", time.Since(start))
			c.Header("X-Cache", "HIT")
			c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", int(ttl.Seconds())))
			c.Data(http.StatusOK, "application/json", body)
			c.Abort()
			return
		}
		RecordCacheMiss("response_cache")
		RecordCacheOperation("GET", "response_cache", time.Since(start))

		writer := &cachedResponseWriter{
			ResponseWriter: c.Writer,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer
		c.Header("X-Cache", "MISS")
		c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", int(ttl.Seconds())))

		c.Next()

		if writer.statusCode >= 200 && writer.statusCode < 300 && writer.body.Len() > 0 {
			setStart := time.Now()
			store.Set(ctx, key, writer.body.Bytes(), ttl)
			RecordCacheOperation("SET", "response_cache", time.Since(setStart))
			logger.Log.Debug("Response cached",
				zap.String("key", key),
				zap.Duration("ttl", ttl),
				zap.Int("size_bytes", writer.body.Len()),
			)
		}
	}
}

func responseCacheKey(c *gin.Context) string {
	key := "response:" + c.Request.URL.Path
	if query := c.Request.URL.RawQuery; query != "" {
		key += ":" + query
	}
	if userID := c.GetString("user_id"); userID != "" {
		key += ":" + userID
	}
	return key
}

// cachedResponseWriter intercepts response writes to capture the body
type cachedResponseWriter struct {
	gin.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (w *cachedResponseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *cachedResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// CacheInvalidationMiddleware clears cached responses after successful
// mutations. Prefixes are matched against the in-process store; remote
// entries are left to expire by TTL.
func CacheInvalidationMiddleware(prefixes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			return
		}

		if c.Writer.Status() < 200 || c.Writer.Status() >= 400 {
			return
		}

		store := cache.GetStore()
		for _, prefix := range prefixes {
			if cleared := store.ClearByPrefix(prefix); cleared > 0 {
				logger.Log.Debug("Response cache invalidated",
					zap.String("prefix", prefix),
					zap.Int("entries", cleared),
				)
			}
		}
	}
}
