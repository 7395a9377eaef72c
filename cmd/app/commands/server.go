package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/opentab/gatekeeper/internal/app"
	"github.com/opentab/gatekeeper/internal/config"
)

// RunServer starts the HTTP server with graceful shutdown support.
// Loads configuration, initializes the DI container, and starts the Gin HTTP server.
// Blocks until receiving SIGINT/SIGTERM or encountering a fatal error. On shutdown
// signal, gracefully stops the server within DBConnMaxLifetime timeout.
func RunServer(ctx context.Context, version string) error {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on log level
	gin.SetMode(cfg.GetGinMode())

	// Create DI container
	container := app.NewContainer(cfg)

	// Get logger from container
	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))

	// Ensure cleanup on exit
	defer closeContainer(container, logger)

	// Get HTTP server from container (this initializes all dependencies)
	server, err := container.HTTPServer()
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	// Get Metrics server from container
	metricsServer, err := initMetricsServer(container, cfg)
	if err != nil {
		return err
	}

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Run both listeners under one group; a fatal error in either cancels
	// the group context and triggers the shutdown path below.
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := server.Start(groupCtx); err != nil {
			return fmt.Errorf("api server error: %w", err)
		}
		return nil
	})

	if metricsServer != nil {
		group.Go(func() error {
			if err := metricsServer.Start(groupCtx); err != nil {
				return fmt.Errorf("metrics server error: %w", err)
			}
			return nil
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutdown initiated")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.DBConnMaxLifetime)
		defer shutdownCancel()

		var shutdownErrors []error
		if err := server.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("api server shutdown: %w", err))
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
			}
		}
		return errors.Join(shutdownErrors...)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
