package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opentab/gatekeeper/internal/metrics"
)

// MetricsServer exposes the Prometheus scrape endpoint on its own listener
// so the exposition surface never shares a port with the public API.
type MetricsServer struct {
	server *http.Server
	logger *slog.Logger
}

// NewMetricsServer mounts /metrics behind the structured request logger.
// A nil provider yields a server with no routes, which keeps startup
// uniform when metrics are disabled.
func NewMetricsServer(
	host string,
	port int,
	logger *slog.Logger,
	metricsProvider *metrics.Provider,
) *MetricsServer {
	router := gin.New()
	router.Use(gin.Recovery(), CustomLoggerMiddleware(logger))

	if metricsProvider != nil {
		router.GET("/metrics", gin.WrapH(metricsProvider.Handler()))
	}

	return &MetricsServer{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// GetHandler exposes the router for in-process tests.
func (s *MetricsServer) GetHandler() http.Handler {
	return s.server.Handler
}

// Start blocks serving scrapes until Shutdown is called.
func (s *MetricsServer) Start(ctx context.Context) error {
	s.logger.Info("starting metrics server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight scrapes within the context deadline.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down metrics server")
	return s.server.Shutdown(ctx)
}
