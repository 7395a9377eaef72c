// Package repository implements data persistence for principals.
//
// Provides PostgreSQL and MySQL implementations with transaction support via
// database.Resolve(). PostgreSQL uses native UUID types, MySQL uses BINARY(16).
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

// PostgreSQLPrincipalRepository implements Principal persistence for PostgreSQL.
type PostgreSQLPrincipalRepository struct {
	db *sql.DB
}

// Get retrieves a Principal by ID.
func (p *PostgreSQLPrincipalRepository) Get(
	ctx context.Context,
	principalID uuid.UUID,
) (*principalDomain.Principal, error) {
	querier := database.Resolve(ctx, p.db)

	query := `SELECT id, tenant_id, branch_id, login, credential_hash, tier, session_version, is_active, created_at
			  FROM principals WHERE id = $1`

	return scanPostgreSQLPrincipal(querier.QueryRowContext(ctx, query, principalID))
}

// GetByLogin retrieves a Principal by its unique login.
func (p *PostgreSQLPrincipalRepository) GetByLogin(
	ctx context.Context,
	login string,
) (*principalDomain.Principal, error) {
	querier := database.Resolve(ctx, p.db)

	query := `SELECT id, tenant_id, branch_id, login, credential_hash, tier, session_version, is_active, created_at
			  FROM principals WHERE login = $1`

	return scanPostgreSQLPrincipal(querier.QueryRowContext(ctx, query, login))
}

// CurrentVersion returns the principal's session version counter.
func (p *PostgreSQLPrincipalRepository) CurrentVersion(
	ctx context.Context,
	principalID uuid.UUID,
) (int64, error) {
	querier := database.Resolve(ctx, p.db)

	query := `SELECT session_version FROM principals WHERE id = $1`

	var version int64
	err := querier.QueryRowContext(ctx, query, principalID).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, principalDomain.ErrPrincipalNotFound
		}
		return 0, apperrors.Wrap(err, "failed to get session version")
	}
	return version, nil
}

// BumpVersion atomically increments the principal's session version and returns
// the new value. A single UPDATE ... RETURNING removes the read-modify-write
// race under concurrent revocations.
func (p *PostgreSQLPrincipalRepository) BumpVersion(
	ctx context.Context,
	principalID uuid.UUID,
) (int64, error) {
	querier := database.Resolve(ctx, p.db)

	query := `UPDATE principals SET session_version = session_version + 1
			  WHERE id = $1 RETURNING session_version`

	var version int64
	err := querier.QueryRowContext(ctx, query, principalID).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, principalDomain.ErrPrincipalNotFound
		}
		return 0, apperrors.Wrap(err, "failed to bump session version")
	}
	return version, nil
}

// scanPostgreSQLPrincipal scans a principal row, mapping sql.ErrNoRows to the
// domain not-found error.
func scanPostgreSQLPrincipal(row *sql.Row) (*principalDomain.Principal, error) {
	var principal principalDomain.Principal
	var branchID uuid.NullUUID
	var tier string

	err := row.Scan(
		&principal.ID,
		&principal.TenantID,
		&branchID,
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

	if branchID.Valid {
		principal.BranchID = &branchID.UUID
	}
	if parsed, ok := principalDomain.ParseTier(tier); ok {
		principal.Tier = parsed
	}

	return &principal, nil
}

// NewPostgreSQLPrincipalRepository creates a new PostgreSQL Principal repository.
func NewPostgreSQLPrincipalRepository(db *sql.DB) *PostgreSQLPrincipalRepository {
	return &PostgreSQLPrincipalRepository{db: db}
}
