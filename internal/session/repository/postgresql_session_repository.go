// Package repository implements data persistence for session records.
//
// Provides PostgreSQL and MySQL implementations with transaction support via
// database.Resolve(). PostgreSQL uses native UUID types, MySQL uses BINARY(16).
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/opentab/gatekeeper/internal/database"
	apperrors "github.com/opentab/gatekeeper/internal/errors"
	sessionDomain "github.com/opentab/gatekeeper/internal/session/domain"
)

// sessionColumns is the canonical select list for session rows.
const sessionColumns = `id, principal_id, tenant_id, platform, source, token_id, ip_address, user_agent,
			  created_at, last_activity_at, expires_at, revoked_at, revoked_by, revoke_reason`

// PostgreSQLSessionRepository implements Session persistence for PostgreSQL.
type PostgreSQLSessionRepository struct {
	db *sql.DB
}

// Create inserts a new Session into the PostgreSQL database.
func (p *PostgreSQLSessionRepository) Create(ctx context.Context, session *sessionDomain.Session) error {
	querier := database.Resolve(ctx, p.db)

	query := `INSERT INTO sessions (` + sessionColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := querier.ExecContext(
		ctx,
		query,
		session.ID,
		session.PrincipalID,
		session.TenantID,
		string(session.Platform),
		string(session.Source),
		session.TokenID,
		session.IPAddress,
		session.UserAgent,
		session.CreatedAt,
		session.LastActivityAt,
		session.ExpiresAt,
		session.RevokedAt,
		session.RevokedBy,
		session.RevokeReason,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create session")
	}
	return nil
}

// Get retrieves a Session by ID.
func (p *PostgreSQLSessionRepository) Get(
	ctx context.Context,
	sessionID uuid.UUID,
) (*sessionDomain.Session, error) {
	querier := database.Resolve(ctx, p.db)

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	return scanPostgreSQLSession(querier.QueryRowContext(ctx, query, sessionID))
}

// Touch updates the session's last-activity timestamp. Touching a terminal
// session is a silent no-op: revocation always wins.
func (p *PostgreSQLSessionRepository) Touch(ctx context.Context, sessionID uuid.UUID, at time.Time) error {
	querier := database.Resolve(ctx, p.db)

	query := `UPDATE sessions SET last_activity_at = $1 WHERE id = $2 AND revoked_at IS NULL`

	if _, err := querier.ExecContext(ctx, query, at, sessionID); err != nil {
		return apperrors.Wrap(err, "failed to touch session")
	}
	return nil
}

// Revoke marks the session terminal. The revoked_at IS NULL guard makes the
// operation idempotent: a second revocation affects zero rows and is not an
// error, and the original revocation metadata is preserved.
func (p *PostgreSQLSessionRepository) Revoke(
	ctx context.Context,
	sessionID uuid.UUID,
	at time.Time,
	actor *uuid.UUID,
	reason string,
) error {
	querier := database.Resolve(ctx, p.db)

	query := `UPDATE sessions SET revoked_at = $1, revoked_by = $2, revoke_reason = $3
			  WHERE id = $4 AND revoked_at IS NULL`

	if _, err := querier.ExecContext(ctx, query, at, actor, reason, sessionID); err != nil {
		return apperrors.Wrap(err, "failed to revoke session")
	}
	return nil
}

// RevokeAllForPrincipal marks every live session of the principal terminal and
// returns how many sessions were affected.
func (p *PostgreSQLSessionRepository) RevokeAllForPrincipal(
	ctx context.Context,
	principalID uuid.UUID,
	at time.Time,
	actor *uuid.UUID,
	reason string,
) (int64, error) {
	querier := database.Resolve(ctx, p.db)

	query := `UPDATE sessions SET revoked_at = $1, revoked_by = $2, revoke_reason = $3
			  WHERE principal_id = $4 AND revoked_at IS NULL`

	result, err := querier.ExecContext(ctx, query, at, actor, reason, principalID)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to revoke principal sessions")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to read affected rows")
	}
	return affected, nil
}

// ListActive returns the principal's live sessions, newest activity first.
func (p *PostgreSQLSessionRepository) ListActive(
	ctx context.Context,
	principalID uuid.UUID,
	now time.Time,
) ([]*sessionDomain.Session, error) {
	querier := database.Resolve(ctx, p.db)

	query := `SELECT ` + sessionColumns + ` FROM sessions
			  WHERE principal_id = $1 AND revoked_at IS NULL AND expires_at > $2
			  ORDER BY last_activity_at DESC`

	rows, err := querier.QueryContext(ctx, query, principalID, now)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list active sessions")
	}
	defer func() {
		_ = rows.Close()
	}()

	sessions := make([]*sessionDomain.Session, 0)
	for rows.Next() {
		session, err := scanPostgreSQLSessionRow(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate sessions")
	}
	return sessions, nil
}

// DeleteTerminatedBefore reclaims storage for sessions that became terminal
// before the cutoff and were never re-checked. Returns how many rows were
// removed; callers loop until zero.
func (p *PostgreSQLSessionRepository) DeleteTerminatedBefore(
	ctx context.Context,
	cutoff time.Time,
	limit int,
) (int64, error) {
	querier := database.Resolve(ctx, p.db)

	query := `DELETE FROM sessions WHERE id IN (
			  SELECT id FROM sessions
			  WHERE (revoked_at IS NOT NULL AND revoked_at < $1) OR expires_at < $1
			  LIMIT $2)`

	result, err := querier.ExecContext(ctx, query, cutoff, limit)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete terminated sessions")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to read affected rows")
	}
	return affected, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanPostgreSQLSession scans a single session row, mapping sql.ErrNoRows to
// the domain not-found error.
func scanPostgreSQLSession(row *sql.Row) (*sessionDomain.Session, error) {
	session, err := scanPostgreSQLSessionRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sessionDomain.ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// scanPostgreSQLSessionRow scans session columns from any scanner.
func scanPostgreSQLSessionRow(row rowScanner) (*sessionDomain.Session, error) {
	var session sessionDomain.Session
	var platform, source string
	var revokedAt sql.NullTime
	var revokedBy uuid.NullUUID
	var revokeReason sql.NullString

	err := row.Scan(
		&session.ID,
		&session.PrincipalID,
		&session.TenantID,
		&platform,
		&source,
		&session.TokenID,
		&session.IPAddress,
		&session.UserAgent,
		&session.CreatedAt,
		&session.LastActivityAt,
		&session.ExpiresAt,
		&revokedAt,
		&revokedBy,
		&revokeReason,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan session")
	}

	session.Platform = sessionDomain.Platform(platform)
	session.Source = sessionDomain.Source(source)
	if revokedAt.Valid {
		session.RevokedAt = &revokedAt.Time
	}
	if revokedBy.Valid {
		session.RevokedBy = &revokedBy.UUID
	}
	if revokeReason.Valid {
		session.RevokeReason = &revokeReason.String
	}
	return &session, nil
}

// NewPostgreSQLSessionRepository creates a new PostgreSQL Session repository.
func NewPostgreSQLSessionRepository(db *sql.DB) *PostgreSQLSessionRepository {
	return &PostgreSQLSessionRepository{db: db}
}
