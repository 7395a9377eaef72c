// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	authHTTP "github.com/opentab/gatekeeper/internal/auth/http"
	authService "github.com/opentab/gatekeeper/internal/auth/service"
	authUseCase "github.com/opentab/gatekeeper/internal/auth/usecase"
	"github.com/opentab/gatekeeper/internal/cache"
	capabilityHTTP "github.com/opentab/gatekeeper/internal/capability/http"
	capabilityUseCase "github.com/opentab/gatekeeper/internal/capability/usecase"
	"github.com/opentab/gatekeeper/internal/config"
	"github.com/opentab/gatekeeper/internal/database"
	"github.com/opentab/gatekeeper/internal/http"
	"github.com/opentab/gatekeeper/internal/metrics"
	ratelimitUseCase "github.com/opentab/gatekeeper/internal/ratelimit/usecase"
	revocationUseCase "github.com/opentab/gatekeeper/internal/revocation/usecase"
	sessionUseCase "github.com/opentab/gatekeeper/internal/session/usecase"
	webhookHTTP "github.com/opentab/gatekeeper/internal/webhook/http"
	webhookService "github.com/opentab/gatekeeper/internal/webhook/service"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger     *slog.Logger
	db         *sql.DB
	cacheStore cache.Store

	// Managers
	txManager database.TxManager

	// Repositories
	principalRepo principalStore
	tenantRepo    ratelimitUseCase.PlanRepository
	sessionRepo   sessionUseCase.SessionRepository
	auditRepo     capabilityUseCase.AuditRepository

	// Services
	credentialService authService.CredentialService
	passwordService   authService.PasswordService
	webhookVerifier   *webhookService.Verifier

	// Use Cases
	sessionUC    sessionUseCase.SessionUseCase
	revocationUC revocationUseCase.RevocationUseCase
	authUC       authUseCase.AuthUseCase
	capabilityUC capabilityUseCase.CapabilityUseCase
	rateLimitUC  ratelimitUseCase.RateLimitUseCase

	// HTTP Handlers
	authHandler    *authHTTP.AuthHandler
	adminHandler   *capabilityHTTP.AdminHandler
	webhookHandler *webhookHTTP.WebhookHandler

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                    sync.Mutex
	loggerInit            sync.Once
	dbInit                sync.Once
	cacheStoreInit        sync.Once
	txManagerInit         sync.Once
	principalRepoInit     sync.Once
	tenantRepoInit        sync.Once
	sessionRepoInit       sync.Once
	auditRepoInit         sync.Once
	credentialServiceInit sync.Once
	passwordServiceInit   sync.Once
	webhookVerifierInit   sync.Once
	sessionUCInit         sync.Once
	revocationUCInit      sync.Once
	authUCInit            sync.Once
	capabilityUCInit      sync.Once
	rateLimitUCInit       sync.Once
	authHandlerInit       sync.Once
	adminHandlerInit      sync.Once
	webhookHandlerInit    sync.Once
	metricsProviderInit   sync.Once
	businessMetricsInit   sync.Once
	httpServerInit        sync.Once
	metricsServerInit     sync.Once
	initErrors            map[string]error
}

// principalStore is the union of the principal persistence surfaces the
// authentication and revocation flows need, so one repository instance backs
// both.
type principalStore interface {
	authUseCase.PrincipalRepository
	revocationUseCase.PrincipalVersionRepository
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// CacheStore returns the shared ephemeral store. The store degrades to an
// in-process fallback when the external backend is unavailable; it never
// fails to initialize.
func (c *Container) CacheStore() cache.Store {
	c.cacheStoreInit.Do(func() {
		c.cacheStore = c.initCacheStore()
	})
	return c.cacheStore
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the OpenTelemetry metrics provider backed by the
// Prometheus exporter.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. When metrics are
// disabled a no-op recorder is returned.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the HTTP server instance with the route table configured.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the standalone metrics server instance.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	// Shutdown HTTP server if initialized
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	// Shutdown metrics server if initialized
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	// Shutdown metrics provider if initialized
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	// Close ephemeral store if initialized
	if c.cacheStore != nil {
		if err := c.cacheStore.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("cache store close: %w", err))
		}
	}

	// Close database connection if initialized
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	// Return combined errors if any occurred
	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(context.Background(), database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initCacheStore creates the shared ephemeral store: an external backend with
// an in-process fallback behind it. A missing or unreachable external backend
// degrades to the fallback alone instead of failing startup.
func (c *Container) initCacheStore() cache.Store {
	logger := c.Logger()
	memory := cache.NewMemoryStore()

	if c.config.RedisURL == "" {
		logger.Warn("redis url not configured, using in-process ephemeral store only")
		return memory
	}

	redisStore, err := cache.NewRedisStore(c.config.RedisURL, "gatekeeper:")
	if err != nil {
		logger.Warn("redis unavailable, using in-process ephemeral store only",
			slog.Any("error", err),
		)
		return memory
	}

	return cache.NewFailoverStore(redisStore, memory, c.config.CacheOpTimeout, logger)
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initBusinessMetrics creates the business metrics recorder.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	if !c.config.MetricsEnabled {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}
	return metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}

// initHTTPServer creates the HTTP server with all its dependencies and builds
// the route table.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	authHandler, err := c.AuthHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth handler for http server: %w", err)
	}

	adminHandler, err := c.AdminHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get admin handler for http server: %w", err)
	}

	webhookHandler, err := c.WebhookHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook handler for http server: %w", err)
	}

	authUC, err := c.AuthUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth use case for http server: %w", err)
	}

	capabilityUC, err := c.CapabilityUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get capability use case for http server: %w", err)
	}

	rateLimitUC, err := c.RateLimitUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limit use case for http server: %w", err)
	}

	routerConfig := &http.RouterConfig{
		AuthHandler:       authHandler,
		AdminHandler:      adminHandler,
		WebhookHandler:    webhookHandler,
		AuthUseCase:       authUC,
		CapabilityUseCase: capabilityUC,
		RateLimitUseCase:  rateLimitUC,
		TrustForwarded:    c.config.TrustForwardedFor,
		CORSEnabled:       c.config.CORSEnabled,
		CORSAllowOrigins:  c.config.CORSAllowOrigins,
		MetricsNamespace:  c.config.MetricsNamespace,
	}

	if reporter, ok := c.CacheStore().(cache.HealthReporter); ok {
		routerConfig.Cache = reporter
	}

	if c.config.MetricsEnabled {
		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
		}
		routerConfig.MeterProvider = provider.MeterProvider()
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(routerConfig)

	return server, nil
}

// initMetricsServer creates the standalone metrics server.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}

	return http.NewMetricsServer(
		c.config.ServerHost,
		c.config.MetricsPort,
		c.Logger(),
		provider,
	), nil
}
