package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	revocationUseCase "github.com/opentab/gatekeeper/internal/revocation/usecase"
	sessionDomain "github.com/opentab/gatekeeper/internal/session/domain"
	sessionUseCase "github.com/opentab/gatekeeper/internal/session/usecase"
)

// RunRevokePrincipal invalidates every outstanding credential and session of a
// principal. The session version bump runs first so stolen credentials die even
// if the session revocation below fails partway.
//
// Requirements: Database must be migrated and accessible.
func RunRevokePrincipal(
	ctx context.Context,
	revocationUC revocationUseCase.RevocationUseCase,
	sessionUC sessionUseCase.SessionUseCase,
	logger *slog.Logger,
	out io.Writer,
	principalID string,
	format string,
) error {
	id, err := uuid.Parse(principalID)
	if err != nil {
		return fmt.Errorf("invalid principal id: %s", principalID)
	}

	logger.Info("revoking principal credentials",
		slog.String("principal_id", id.String()),
	)

	version, err := revocationUC.BumpVersion(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to bump session version: %w", err)
	}

	count, err := sessionUC.RevokeAllForPrincipal(ctx, id, nil, sessionDomain.ReasonCredentialRisk)
	if err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	if format == "json" {
		outputRevokeJSON(out, id, version, count)
	} else {
		outputRevokeText(out, id, version, count)
	}

	logger.Info("principal revoked",
		slog.String("principal_id", id.String()),
		slog.Int64("session_version", version),
		slog.Int64("revoked_sessions", count),
	)

	return nil
}

// outputRevokeText outputs the result in human-readable text format.
func outputRevokeText(out io.Writer, id uuid.UUID, version, count int64) {
	fmt.Fprintf(out, "Principal %s: session version bumped to %d, %d session(s) revoked\n", id, version, count)
}

// outputRevokeJSON outputs the result in JSON format for machine consumption.
func outputRevokeJSON(out io.Writer, id uuid.UUID, version, count int64) {
	result := map[string]interface{}{
		"principal_id":     id.String(),
		"session_version":  version,
		"revoked_sessions": count,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(out, "failed to marshal JSON: %v\n", err)
		return
	}
	fmt.Fprintln(out, string(jsonBytes))
}
