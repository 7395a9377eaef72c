package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentab/gatekeeper/internal/metrics"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func createTestServer() *Server {
	return NewServer(nil, "localhost", 8080, discardLogger())
}

// staticHealthReporter fakes ephemeral-store health for readiness tests.
type staticHealthReporter struct {
	healthy bool
}

func (s *staticHealthReporter) Healthy() bool {
	return s.healthy
}

// probeRouter wires only the liveness and readiness routes, so probe tests
// do not need the full dependency container behind SetupRouter.
func probeRouter(server *Server) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(server.logger))
	router.GET("/health", server.healthHandler)
	router.GET("/ready", server.readinessHandler)
	return router
}

func TestHealthHandler(t *testing.T) {
	server := createTestServer()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	probeRouter(server).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
}

// TestReadinessHandler_NotReady_NilDB tests the readiness endpoint when DB is nil.
func TestReadinessHandler_NotReady_NilDB(t *testing.T) {
	server := createTestServer()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

	server.readinessHandler(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "not_ready", response["status"])

	components, ok := response["components"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "error", components["database"])
}

// TestReadinessHandler_DegradedCache verifies a degraded ephemeral store is
// reported but does not flip readiness. The database is nil here so overall
// status is still not_ready; the cache component must read degraded.
func TestReadinessHandler_DegradedCache(t *testing.T) {
	server := createTestServer()
	server.cache = &staticHealthReporter{healthy: false}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

	server.readinessHandler(c)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	components, ok := response["components"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "degraded", components["cache"])
}

func TestRecoveryMiddleware_ConvertsPanicTo500(t *testing.T) {
	router := gin.New()
	router.Use(gin.Recovery(), CustomLoggerMiddleware(discardLogger()))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequestID_IsValidUUIDHeader(t *testing.T) {
	server := createTestServer()

	w := httptest.NewRecorder()
	probeRouter(server).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	requestID := w.Header().Get("X-Request-Id")
	require.NotEmpty(t, requestID)

	parsed, err := uuid.Parse(requestID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestRouter_UnknownRoute404(t *testing.T) {
	server := createTestServer()

	w := httptest.NewRecorder()
	probeRouter(server).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nonexistent", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_ShutdownGracefully(t *testing.T) {
	server := createTestServer()
	server.router = probeRouter(server)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(context.Background())
	}()

	time.Sleep(100 * time.Millisecond)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(shutdownCtx))

	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("server did not stop after shutdown")
	}
}

func TestMetricsServer_ServesScrapeEndpoint(t *testing.T) {
	provider, err := metrics.NewProvider("gatekeeper_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	metricsServer := NewMetricsServer("localhost", 8081, discardLogger(), provider)

	w := httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}

func TestMetricsServer_NilProviderHasNoRoutes(t *testing.T) {
	metricsServer := NewMetricsServer("localhost", 8081, discardLogger(), nil)

	w := httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
