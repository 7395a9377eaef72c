package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/opentab/gatekeeper/internal/database"
	apperrors "github.com/opentab/gatekeeper/internal/errors"
	principalDomain "github.com/opentab/gatekeeper/internal/principal/domain"
)

// MySQLPrincipalRepository implements Principal persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.Resolve().
type MySQLPrincipalRepository struct {
	db *sql.DB
}

// Get retrieves a Principal by ID.
func (m *MySQLPrincipalRepository) Get(
	ctx context.Context,
	principalID uuid.UUID,
) (*principalDomain.Principal, error) {
	querier := database.Resolve(ctx, m.db)

	id, err := principalID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal principal id")
	}

	query := `SELECT id, tenant_id, branch_id, login, credential_hash, tier, session_version, is_active, created_at
			  FROM principals WHERE id = ?`

	return scanMySQLPrincipal(querier.QueryRowContext(ctx, query, id))
}

// GetByLogin retrieves a Principal by its unique login.
func (m *MySQLPrincipalRepository) GetByLogin(
	ctx context.Context,
	login string,
) (*principalDomain.Principal, error) {
	querier := database.Resolve(ctx, m.db)

	query := `SELECT id, tenant_id, branch_id, login, credential_hash, tier, session_version, is_active, created_at
			  FROM principals WHERE login = ?`

	return scanMySQLPrincipal(querier.QueryRowContext(ctx, query, login))
}

// CurrentVersion returns the principal's session version counter.
func (m *MySQLPrincipalRepository) CurrentVersion(
	ctx context.Context,
	principalID uuid.UUID,
) (int64, error) {
	querier := database.Resolve(ctx, m.db)

	id, err := principalID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal principal id")
	}

	query := `SELECT session_version FROM principals WHERE id = ?`

	var version int64
	err = querier.QueryRowContext(ctx, query, id).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, principalDomain.ErrPrincipalNotFound
		}
		return 0, apperrors.Wrap(err, "failed to get session version")
	}
	return version, nil
}

// BumpVersion atomically increments the principal's session version and returns
// the new value. MySQL has no RETURNING, so the new value is captured through
// LAST_INSERT_ID, which is connection-local and race-free.
func (m *MySQLPrincipalRepository) BumpVersion(
	ctx context.Context,
	principalID uuid.UUID,
) (int64, error) {
	querier := database.Resolve(ctx, m.db)

	id, err := principalID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal principal id")
	}

	query := `UPDATE principals SET session_version = LAST_INSERT_ID(session_version + 1) WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, id)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to bump session version")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return 0, principalDomain.ErrPrincipalNotFound
	}

	version, err := result.LastInsertId()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to read new session version")
	}
	return version, nil
}

// scanMySQLPrincipal scans a principal row stored with BINARY(16) UUIDs.
func scanMySQLPrincipal(row *sql.Row) (*principalDomain.Principal, error) {
	var principal principalDomain.Principal
	var idBytes, tenantIDBytes []byte
	var branchIDBytes []byte
	var tier string

	err := row.Scan(
		&idBytes,
		&tenantIDBytes,
		&branchIDBytes,
		&principal.Login,
		&principal.CredentialHash,
		&tier,
		&principal.SessionVersion,
		&principal.IsActive,
		&principal.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, principalDomain.ErrPrincipalNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get principal")
	}

	if principal.ID, err = uuid.FromBytes(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal principal id")
	}
	if principal.TenantID, err = uuid.FromBytes(tenantIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal tenant id")
	}
	if branchIDBytes != nil {
		branchID, err := uuid.FromBytes(branchIDBytes)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal branch id")
		}
		principal.BranchID = &branchID
	}
	if parsed, ok := principalDomain.ParseTier(tier); ok {
		principal.Tier = parsed
	}

	return &principal, nil
}

// NewMySQLPrincipalRepository creates a new MySQL Principal repository.
func NewMySQLPrincipalRepository(db *sql.DB) *MySQLPrincipalRepository {
	return &MySQLPrincipalRepository{db: db}
}
