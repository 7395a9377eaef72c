package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	sessionUseCase "github.com/opentab/gatekeeper/internal/session/usecase"
)

// RunSweepSessions reclaims storage for sessions that became terminal before
// the retention window. Expired-but-never-revalidated sessions are covered as
// well: the sweep treats a session whose absolute expiry passed before the
// cutoff the same as an explicitly revoked one.
//
// Requirements: Database must be migrated and accessible.
func RunSweepSessions(
	ctx context.Context,
	sessionUC sessionUseCase.SessionUseCase,
	logger *slog.Logger,
	out io.Writer,
	retentionDays int,
	batchSize int,
	format string,
) error {
	if retentionDays < 0 {
		return fmt.Errorf("retention-days must be a positive number, got: %d", retentionDays)
	}
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be a positive number, got: %d", batchSize)
	}

	retention := time.Duration(retentionDays) * 24 * time.Hour

	logger.Info("sweeping terminal sessions",
		slog.Int("retention_days", retentionDays),
		slog.Int("batch_size", batchSize),
	)

	count, err := sessionUC.Sweep(ctx, retention, batchSize)
	if err != nil {
		return fmt.Errorf("failed to sweep sessions: %w", err)
	}

	if format == "json" {
		outputSweepJSON(out, count, retentionDays)
	} else {
		outputSweepText(out, count, retentionDays)
	}

	logger.Info("sweep completed",
		slog.Int64("count", count),
		slog.Int("retention_days", retentionDays),
	)

	return nil
}

// outputSweepText outputs the result in human-readable text format.
func outputSweepText(out io.Writer, count int64, retentionDays int) {
	fmt.Fprintf(out, "Reclaimed %d session(s) terminal for more than %d day(s)\n", count, retentionDays)
}

// outputSweepJSON outputs the result in JSON format for machine consumption.
func outputSweepJSON(out io.Writer, count int64, retentionDays int) {
	result := map[string]interface{}{
		"count":          count,
		"retention_days": retentionDays,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(out, "failed to marshal JSON: %v\n", err)
		return
	}
	fmt.Fprintln(out, string(jsonBytes))
}
