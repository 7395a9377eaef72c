package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInstrumentedRouter(t *testing.T) (*gin.Engine, *Provider) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider, err := NewProvider("gatekeeper_test")
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	})

	router := gin.New()
	router.Use(HTTPMetricsMiddleware(provider.MeterProvider(), "gatekeeper_test"))
	return router, provider
}

func scrape(t *testing.T, provider *Provider) string {
	t.Helper()
	w := httptest.NewRecorder()
	provider.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return w.Body.String()
}

func TestHTTPMetricsMiddleware_CountsByRouteAndStatus(t *testing.T) {
	router, provider := newInstrumentedRouter(t)
	router.GET("/v1/sessions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sessions": []string{}})
	})
	router.POST("/v1/login", func(c *gin.Context) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/sessions", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/login", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	output := scrape(t, provider)
	assert.Regexp(t,
		`gatekeeper_test_http_requests_total\{[^}]*method="GET"[^}]*path="/v1/sessions"[^}]*status_code="200"[^}]*\} 3`,
		output)
	assert.Regexp(t,
		`gatekeeper_test_http_requests_total\{[^}]*method="POST"[^}]*path="/v1/login"[^}]*status_code="401"[^}]*\} 1`,
		output)
	assert.Regexp(t,
		`gatekeeper_test_http_request_duration_seconds_count\{[^}]*path="/v1/sessions"[^}]*\} 3`,
		output)
}

func TestHTTPMetricsMiddleware_UsesRoutePatternForParams(t *testing.T) {
	router, provider := newInstrumentedRouter(t)
	router.POST("/v1/admin/orders/:id/void", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})

	for _, id := range []string{"111", "222"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/admin/orders/"+id+"/void", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	output := scrape(t, provider)
	assert.Regexp(t,
		`gatekeeper_test_http_requests_total\{[^}]*path="/v1/admin/orders/:id/void"[^}]*\} 2`,
		output)
	assert.NotContains(t, output, `path="/v1/admin/orders/111/void"`)
}

func TestHTTPMetricsMiddleware_UnmatchedRoute(t *testing.T) {
	router, provider := newInstrumentedRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	assert.Regexp(t,
		`gatekeeper_test_http_requests_total\{[^}]*path="unknown"[^}]*status_code="404"[^}]*\} 1`,
		scrape(t, provider))
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/v1/sessions", routeLabel("/v1/sessions"))
	assert.Equal(t, "/v1/webhooks/:provider", routeLabel("/v1/webhooks/:provider"))
	assert.Equal(t, "unknown", routeLabel(""))
}
