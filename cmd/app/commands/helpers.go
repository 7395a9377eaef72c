// Package commands contains CLI command implementations for the application.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"

	"github.com/opentab/gatekeeper/internal/app"
	"github.com/opentab/gatekeeper/internal/config"
	"github.com/opentab/gatekeeper/internal/http"
)

// closeContainer closes all resources in the container and logs any errors.
func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}

// closeMigrate closes the migration instance and logs any errors.
func closeMigrate(migrate *migrate.Migrate, logger *slog.Logger) {
	sourceError, databaseError := migrate.Close()
	if sourceError != nil || databaseError != nil {
		logger.Error(
			"failed to close the migrate",
			slog.Any("source_error", sourceError),
			slog.Any("database_error", databaseError),
		)
	}
}

// initMetricsServer returns the metrics server when metrics are enabled,
// nil otherwise.
func initMetricsServer(container *app.Container, cfg *config.Config) (*http.MetricsServer, error) {
	if !cfg.MetricsEnabled {
		return nil, nil
	}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics server: %w", err)
	}
	return metricsServer, nil
}
