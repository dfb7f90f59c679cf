package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/cache"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func responseCacheRouter(ttl time.Duration) (*gin.Engine, *int) {
	gin.SetMode(gin.TestMode)
	logger.Initialize("error", "/tmp/uolink-middleware-test.log")

	// The store is process-global; drop leftovers from other tests.
	if cache.GetStore() == nil {
		cache.NewStore(nil)
	}
	cache.GetStore().ClearByPrefix("response:")

	hits := 0
	router := gin.New()
	router.GET("/api/v1/notes", ResponseCacheMiddleware(ttl), func(c *gin.Context) {
		hits++
		c.JSON(http.StatusOK, gin.H{"hits": hits})
	})
	router.POST("/api/v1/notes", CacheInvalidationMiddleware("response:/api/v1/notes"), func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"created": true})
	})
	return router, &hits
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestResponseCacheHitAndMiss(t *testing.T) {
	router, hits := responseCacheRouter(time.Minute)

	first := get(router, "/api/v1/notes")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := get(router, "/api/v1/notes")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, *hits, "handler should run once while cached")
}

func TestResponseCacheKeyIncludesQuery(t *testing.T) {
	router, hits := responseCacheRouter(time.Minute)

	get(router, "/api/v1/notes?semester=1")
	get(router, "/api/v1/notes?semester=2")
	assert.Equal(t, 2, *hits, "different queries cache separately")

	w := get(router, "/api/v1/notes?semester=1")
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Equal(t, 2, *hits)
}

func TestMutationInvalidatesResponseCache(t *testing.T) {
	router, hits := responseCacheRouter(time.Minute)

	get(router, "/api/v1/notes")
	assert.Equal(t, "HIT", get(router, "/api/v1/notes").Header().Get("X-Cache"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notes", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, "MISS", get(router, "/api/v1/notes").Header().Get("X-Cache"))
	assert.Equal(t, 2, *hits)
}

func TestResponseCacheSetsCacheControl(t *testing.T) {
	router, _ := responseCacheRouter(30 * time.Second)

	w := get(router, "/api/v1/notes")
	assert.Equal(t, fmt.Sprintf("public, max-age=%d", 30), w.Header().Get("Cache-Control"))
}
