package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMetricsRouter(t *testing.T) (*gin.Engine, *metrics.Metrics) {
	t.Helper()
	var err error
	logger.Log, err = zap.NewDevelopment()
	require.NoError(t, err)

	m := metrics.Initialize()
	m.HTTPRequestsTotal.Reset()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(MetricsMiddleware())
	return router, m
}

// Status codes must be recorded as numeric strings so dashboards can
// use regex matchers like status=~"5..".
func TestMetricsMiddlewareRecordsNumericStatus(t *testing.T) {
	router, m := setupMetricsRouter(t)

	router.GET("/notes", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/broken", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/notes", "/missing", "/broken"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/notes", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/missing", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/broken", "500")))

	// A textual label like "OK" would land in a different series
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/notes", "OK")))
}

func TestMetricsMiddlewareCountsRepeats(t *testing.T) {
	router, m := setupMetricsRouter(t)

	router.GET("/leaderboard", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/leaderboard", nil))
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/leaderboard", "200")))
}
