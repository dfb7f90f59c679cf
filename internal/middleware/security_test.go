package middleware

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func securityTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SecurityHeaders())
	router.GET("/*path", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"nonce": GetNonce(c)})
	})
	return router
}

func TestSecurityHeadersSet(t *testing.T) {
	router := securityTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notes", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.Equal(t, "camera=(), microphone=(), geolocation=()", w.Header().Get("Permissions-Policy"))
}

func TestNoncePerRequest(t *testing.T) {
	router := securityTestRouter()

	nonces := make(map[string]bool)
	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		router.ServeHTTP(w, req)

		nonce := w.Header().Get("X-Nonce")
		require.NotEmpty(t, nonce)

		decoded, err := base64.StdEncoding.DecodeString(nonce)
		require.NoError(t, err)
		assert.Len(t, decoded, nonceByteLength)

		assert.False(t, nonces[nonce], "nonce reused across requests")
		nonces[nonce] = true
	}
}

func TestNonceEmbeddedInCSP(t *testing.T) {
	router := securityTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	router.ServeHTTP(w, req)

	nonce := w.Header().Get("X-Nonce")
	csp := w.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "'nonce-"+nonce+"'")
	assert.Contains(t, csp, "default-src 'self'")
	assert.Contains(t, csp, "frame-ancestors 'none'")

	// The nonce is also visible to handlers through the context
	assert.Contains(t, w.Body.String(), nonce)
}

func TestStaticCacheControl(t *testing.T) {
	router := securityTestRouter()

	cases := []struct {
		path string
		want string
	}{
		{"/sw.js", "no-cache, no-store, must-revalidate"},
		{"/manifest.json", "public, max-age=86400"},
		{"/assets/app.3f2a9c.js", "public, max-age=31536000, immutable"},
		{"/static/logo.svg", "public, max-age=31536000, immutable"},
		{"/api/v1/notes", ""},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		router.ServeHTTP(w, req)

		got := w.Header().Get("Cache-Control")
		if tc.want == "" {
			assert.Empty(t, got, tc.path)
		} else {
			assert.Equal(t, tc.want, got, tc.path)
		}
	}
}

func TestCSPDirectiveOrderStable(t *testing.T) {
	csp := buildCSP("abc123")
	parts := strings.Split(csp, "; ")
	assert.Equal(t, "default-src 'self'", parts[0])
	assert.Equal(t, "script-src 'self' 'nonce-abc123'", parts[1])
}
