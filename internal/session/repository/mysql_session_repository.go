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

// MySQLSessionRepository implements Session persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.Resolve().
type MySQLSessionRepository struct {
	db *sql.DB
}

// Create inserts a new Session into the MySQL database.
func (m *MySQLSessionRepository) Create(ctx context.Context, session *sessionDomain.Session) error {
	querier := database.Resolve(ctx, m.db)

	id, principalID, tenantID, tokenID, err := marshalSessionIDs(session)
	if err != nil {
		return err
	}

	var revokedBy []byte
	if session.RevokedBy != nil {
		if revokedBy, err = session.RevokedBy.MarshalBinary(); err != nil {
			return apperrors.Wrap(err, "failed to marshal revoked_by")
		}
	}

	query := `INSERT INTO sessions (` + sessionColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		principalID,
		tenantID,
		string(session.Platform),
		string(session.Source),
		tokenID,
		session.IPAddress,
		session.UserAgent,
		session.CreatedAt,
		session.LastActivityAt,
		session.ExpiresAt,
		session.RevokedAt,
		revokedBy,
		session.RevokeReason,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create session")
	}
	return nil
}

// Get retrieves a Session by ID.
func (m *MySQLSessionRepository) Get(
	ctx context.Context,
	sessionID uuid.UUID,
) (*sessionDomain.Session, error) {
	querier := database.Resolve(ctx, m.db)

	id, err := sessionID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal session id")
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`

	session, err := scanMySQLSessionRow(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sessionDomain.ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// Touch updates the session's last-activity timestamp. Terminal sessions are
// left untouched.
func (m *MySQLSessionRepository) Touch(ctx context.Context, sessionID uuid.UUID, at time.Time) error {
	querier := database.Resolve(ctx, m.db)

	id, err := sessionID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal session id")
	}

	query := `UPDATE sessions SET last_activity_at = ? WHERE id = ? AND revoked_at IS NULL`

	if _, err := querier.ExecContext(ctx, query, at, id); err != nil {
		return apperrors.Wrap(err, "failed to touch session")
	}
	return nil
}

// Revoke marks the session terminal. Idempotent via the revoked_at IS NULL guard.
func (m *MySQLSessionRepository) Revoke(
	ctx context.Context,
	sessionID uuid.UUID,
	at time.Time,
	actor *uuid.UUID,
	reason string,
) error {
	querier := database.Resolve(ctx, m.db)

	id, err := sessionID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal session id")
	}

	var actorID []byte
	if actor != nil {
		if actorID, err = actor.MarshalBinary(); err != nil {
			return apperrors.Wrap(err, "failed to marshal actor id")
		}
	}

	query := `UPDATE sessions SET revoked_at = ?, revoked_by = ?, revoke_reason = ?
			  WHERE id = ? AND revoked_at IS NULL`

	if _, err := querier.ExecContext(ctx, query, at, actorID, reason, id); err != nil {
		return apperrors.Wrap(err, "failed to revoke session")
	}
	return nil
}

// RevokeAllForPrincipal marks every live session of the principal terminal.
func (m *MySQLSessionRepository) RevokeAllForPrincipal(
	ctx context.Context,
	principalID uuid.UUID,
	at time.Time,
	actor *uuid.UUID,
	reason string,
) (int64, error) {
	querier := database.Resolve(ctx, m.db)

	id, err := principalID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal principal id")
	}

	var actorID []byte
	if actor != nil {
		if actorID, err = actor.MarshalBinary(); err != nil {
			return 0, apperrors.Wrap(err, "failed to marshal actor id")
		}
	}

	query := `UPDATE sessions SET revoked_at = ?, revoked_by = ?, revoke_reason = ?
			  WHERE principal_id = ? AND revoked_at IS NULL`

	result, err := querier.ExecContext(ctx, query, at, actorID, reason, id)
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
func (m *MySQLSessionRepository) ListActive(
	ctx context.Context,
	principalID uuid.UUID,
	now time.Time,
) ([]*sessionDomain.Session, error) {
	querier := database.Resolve(ctx, m.db)

	id, err := principalID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal principal id")
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions
			  WHERE principal_id = ? AND revoked_at IS NULL AND expires_at > ?
			  ORDER BY last_activity_at DESC`

	rows, err := querier.QueryContext(ctx, query, id, now)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list active sessions")
	}
	defer func() {
		_ = rows.Close()
	}()

	sessions := make([]*sessionDomain.Session, 0)
	for rows.Next() {
		session, err := scanMySQLSessionRow(rows)
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
// before the cutoff.
func (m *MySQLSessionRepository) DeleteTerminatedBefore(
	ctx context.Context,
	cutoff time.Time,
	limit int,
) (int64, error) {
	querier := database.Resolve(ctx, m.db)

	query := `DELETE FROM sessions
			  WHERE (revoked_at IS NOT NULL AND revoked_at < ?) OR expires_at < ?
			  LIMIT ?`

	result, err := querier.ExecContext(ctx, query, cutoff, cutoff, limit)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete terminated sessions")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to read affected rows")
	}
	return affected, nil
}

// marshalSessionIDs converts the session's UUID fields to BINARY(16) form.
func marshalSessionIDs(session *sessionDomain.Session) (id, principalID, tenantID, tokenID []byte, err error) {
	if id, err = session.ID.MarshalBinary(); err != nil {
		return nil, nil, nil, nil, apperrors.Wrap(err, "failed to marshal session id")
	}
	if principalID, err = session.PrincipalID.MarshalBinary(); err != nil {
		return nil, nil, nil, nil, apperrors.Wrap(err, "failed to marshal principal id")
	}
	if tenantID, err = session.TenantID.MarshalBinary(); err != nil {
		return nil, nil, nil, nil, apperrors.Wrap(err, "failed to marshal tenant id")
	}
	if tokenID, err = session.TokenID.MarshalBinary(); err != nil {
		return nil, nil, nil, nil, apperrors.Wrap(err, "failed to marshal token id")
	}
	return id, principalID, tenantID, tokenID, nil
}

// scanMySQLSessionRow scans session columns stored with BINARY(16) UUIDs.
func scanMySQLSessionRow(row rowScanner) (*sessionDomain.Session, error) {
	var session sessionDomain.Session
	var idBytes, principalIDBytes, tenantIDBytes, tokenIDBytes, revokedByBytes []byte
	var platform, source string
	var revokedAt sql.NullTime
	var revokeReason sql.NullString

	err := row.Scan(
		&idBytes,
		&principalIDBytes,
		&tenantIDBytes,
		&platform,
		&source,
		&tokenIDBytes,
		&session.IPAddress,
		&session.UserAgent,
		&session.CreatedAt,
		&session.LastActivityAt,
		&session.ExpiresAt,
		&revokedAt,
		&revokedByBytes,
		&revokeReason,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan session")
	}

	if session.ID, err = uuid.FromBytes(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal session id")
	}
	if session.PrincipalID, err = uuid.FromBytes(principalIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal principal id")
	}
	if session.TenantID, err = uuid.FromBytes(tenantIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal tenant id")
	}
	if session.TokenID, err = uuid.FromBytes(tokenIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal token id")
	}
	session.Platform = sessionDomain.Platform(platform)
	session.Source = sessionDomain.Source(source)
	if revokedAt.Valid {
		session.RevokedAt = &revokedAt.Time
	}
	if revokedByBytes != nil {
		revokedBy, err := uuid.FromBytes(revokedByBytes)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal revoked_by")
		}
		session.RevokedBy = &revokedBy
	}
	if revokeReason.Valid {
		session.RevokeReason = &revokeReason.String
	}
	return &session, nil
}

// NewMySQLSessionRepository creates a new MySQL Session repository.
func NewMySQLSessionRepository(db *sql.DB) *MySQLSessionRepository {
	return &MySQLSessionRepository{db: db}
}
