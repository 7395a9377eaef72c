// Package http provides the Gin HTTP server, route table, and the separate
// metrics server.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	authHTTP "github.com/opentab/gatekeeper/internal/auth/http"
	authUseCase "github.com/opentab/gatekeeper/internal/auth/usecase"
	"github.com/opentab/gatekeeper/internal/cache"
	capabilityDomain "github.com/opentab/gatekeeper/internal/capability/domain"
	capabilityHTTP "github.com/opentab/gatekeeper/internal/capability/http"
	capabilityUseCase "github.com/opentab/gatekeeper/internal/capability/usecase"
	"github.com/opentab/gatekeeper/internal/metrics"
	ratelimitUseCase "github.com/opentab/gatekeeper/internal/ratelimit/usecase"
	webhookHTTP "github.com/opentab/gatekeeper/internal/webhook/http"
)

// Server represents the HTTP server.
type Server struct {
	db     *sql.DB
	cache  cache.HealthReporter
	logger *slog.Logger
	router *gin.Engine
	server *http.Server
}

// NewServer creates a new HTTP server. The router is empty until SetupRouter
// is called.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// RouterConfig carries the handlers and middleware dependencies for the route
// table.
type RouterConfig struct {
	AuthHandler    *authHTTP.AuthHandler
	AdminHandler   *capabilityHTTP.AdminHandler
	WebhookHandler *webhookHTTP.WebhookHandler

	AuthUseCase       authUseCase.AuthUseCase
	CapabilityUseCase capabilityUseCase.CapabilityUseCase
	RateLimitUseCase  ratelimitUseCase.RateLimitUseCase

	// Cache reports ephemeral-store degradation on the readiness endpoint.
	Cache cache.HealthReporter

	// TrustForwarded controls whether X-Forwarded-For is honored when
	// resolving the client address for rate limiting.
	TrustForwarded bool

	CORSEnabled      bool
	CORSAllowOrigins string

	MeterProvider    metric.MeterProvider
	MetricsNamespace string
}

// SetupRouter builds the route table. Call before Start.
func (s *Server) SetupRouter(cfg *RouterConfig) {
	s.cache = cfg.Cache

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if cfg.MeterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(cfg.MeterProvider, cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")

	// Unauthenticated surface. Login and webhook ingress are gated by the
	// flat per-address window only: no tenant is known yet.
	v1.POST("/login",
		authHTTP.AddressRateLimitMiddleware(cfg.RateLimitUseCase, "login", cfg.TrustForwarded, s.logger),
		cfg.AuthHandler.LoginHandler,
	)
	v1.POST("/webhooks/:provider",
		authHTTP.AddressRateLimitMiddleware(cfg.RateLimitUseCase, "webhooks", cfg.TrustForwarded, s.logger),
		cfg.WebhookHandler.ReceiveHandler,
	)

	// Everything below requires a valid bearer credential and a consistent
	// tenant scope header.
	authed := v1.Group("")
	authed.Use(authHTTP.AuthenticationMiddleware(cfg.AuthUseCase, s.logger))
	authed.Use(authHTTP.TenantScopeMiddleware(s.logger))

	authed.POST("/logout",
		authHTTP.RateLimitMiddleware(cfg.RateLimitUseCase, "sessions", cfg.TrustForwarded, s.logger),
		cfg.AuthHandler.LogoutHandler,
	)
	authed.POST("/logout-everywhere",
		authHTTP.RateLimitMiddleware(cfg.RateLimitUseCase, "sessions", cfg.TrustForwarded, s.logger),
		cfg.AuthHandler.LogoutEverywhereHandler,
	)
	authed.GET("/sessions",
		authHTTP.RateLimitMiddleware(cfg.RateLimitUseCase, "sessions", cfg.TrustForwarded, s.logger),
		cfg.AuthHandler.ListSessionsHandler,
	)

	// Capability-gated admin surface. Rate limiting runs before the
	// capability check so throttled bursts do not flood the audit trail.
	admin := authed.Group("/admin")

	admin.POST("/orders/:id/void",
		authHTTP.RateLimitMiddleware(cfg.RateLimitUseCase, "orders.void", cfg.TrustForwarded, s.logger),
		authHTTP.CapabilityMiddleware(cfg.CapabilityUseCase, capabilityDomain.ActionVoidPaidOrder, s.logger),
		cfg.AdminHandler.VoidOrderHandler,
	)
	admin.POST("/periods/:id/reopen",
		authHTTP.RateLimitMiddleware(cfg.RateLimitUseCase, "periods.reopen", cfg.TrustForwarded, s.logger),
		authHTTP.CapabilityMiddleware(cfg.CapabilityUseCase, capabilityDomain.ActionReopenPeriod, s.logger),
		cfg.AdminHandler.ReopenPeriodHandler,
	)
	admin.POST("/payroll/:id/post",
		authHTTP.RateLimitMiddleware(cfg.RateLimitUseCase, "payroll.post", cfg.TrustForwarded, s.logger),
		authHTTP.CapabilityMiddleware(cfg.CapabilityUseCase, capabilityDomain.ActionPostPayroll, s.logger),
		cfg.AdminHandler.PostPayrollHandler,
	)
	admin.POST("/billing-credential/rotate",
		authHTTP.RateLimitMiddleware(cfg.RateLimitUseCase, "billing.rotate", cfg.TrustForwarded, s.logger),
		authHTTP.CapabilityMiddleware(cfg.CapabilityUseCase, capabilityDomain.ActionRotateBillingCredential, s.logger),
		cfg.AdminHandler.RotateBillingCredentialHandler,
	)
	admin.POST("/principals/:id/revoke-sessions",
		authHTTP.RateLimitMiddleware(cfg.RateLimitUseCase, "principals.revoke-sessions", cfg.TrustForwarded, s.logger),
		authHTTP.CapabilityMiddleware(cfg.CapabilityUseCase, capabilityDomain.ActionRevokePrincipalSessions, s.logger),
		cfg.AdminHandler.RevokePrincipalSessionsHandler,
	)
	admin.GET("/audit-entries",
		authHTTP.RateLimitMiddleware(cfg.RateLimitUseCase, "audit.list", cfg.TrustForwarded, s.logger),
		authHTTP.CapabilityMiddleware(cfg.CapabilityUseCase, capabilityDomain.ActionViewAuditLog, s.logger),
		cfg.AdminHandler.ListAuditEntriesHandler,
	)

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can do useful work. The durable
// store is required; a degraded ephemeral store is reported but does not flip
// readiness, since every consumer of it has a defined degradation mode.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{}
	ready := true

	if s.db == nil {
		components["database"] = "error"
		ready = false
	} else if err := s.db.PingContext(c.Request.Context()); err != nil {
		components["database"] = "error"
		ready = false
	} else {
		components["database"] = "ok"
	}

	if s.cache != nil {
		if s.cache.Healthy() {
			components["cache"] = "ok"
		} else {
			components["cache"] = "degraded"
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}

// Start starts the HTTP server. SetupRouter must have been called.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
