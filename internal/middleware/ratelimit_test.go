package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func limitedRouter(config RateLimitConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(NewRateLimiter(config))
	router.GET("/notes", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func doGet(router *gin.Engine, clientID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/notes", nil)
	if clientID != "" {
		req.Header.Set("X-Client-ID", clientID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	router := limitedRouter(RateLimitConfig{Limit: 3, Window: time.Second})

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, doGet(router, "").Code, "request %d should pass", i+1)
	}

	w := doGet(router, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimiterRefills(t *testing.T) {
	router := limitedRouter(RateLimitConfig{Limit: 2, Window: time.Second})

	doGet(router, "")
	doGet(router, "")
	assert.Equal(t, http.StatusTooManyRequests, doGet(router, "").Code)

	// A full window refills the bucket
	time.Sleep(time.Second + 100*time.Millisecond)
	assert.Equal(t, http.StatusOK, doGet(router, "").Code)
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	router := limitedRouter(RateLimitConfig{
		Limit:   2,
		Window:  time.Second,
		KeyFunc: func(c *gin.Context) string { return c.GetHeader("X-Client-ID") },
	})

	doGet(router, "alice")
	doGet(router, "alice")
	assert.Equal(t, http.StatusTooManyRequests, doGet(router, "alice").Code)

	// Exhausting alice's bucket must not touch bob's
	assert.Equal(t, http.StatusOK, doGet(router, "bob").Code)
}

func TestEndpointConfigs(t *testing.T) {
	assert.Equal(t, 100, DefaultRateLimitConfig().Limit)
	assert.Equal(t, time.Minute, DefaultRateLimitConfig().Window)

	// Auth stays well below the default to slow credential stuffing
	assert.Less(t, AuthRateLimitConfig().Limit, DefaultRateLimitConfig().Limit)
	assert.Less(t, UploadRateLimitConfig().Limit, DefaultRateLimitConfig().Limit)
	assert.NotNil(t, SearchRateLimitConfig().KeyFunc)
}
