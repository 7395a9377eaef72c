// Package repository implements data persistence for tenants.
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
	tenantDomain "github.com/opentab/gatekeeper/internal/tenant/domain"
)

// PostgreSQLTenantRepository implements Tenant persistence for PostgreSQL.
type PostgreSQLTenantRepository struct {
	db *sql.DB
}

// Get retrieves a Tenant by ID.
func (t *PostgreSQLTenantRepository) Get(
	ctx context.Context,
	tenantID uuid.UUID,
) (*tenantDomain.Tenant, error) {
	querier := database.Resolve(ctx, t.db)

	query := `SELECT id, name, plan, is_active, created_at FROM tenants WHERE id = $1`

	var tenant tenantDomain.Tenant
	var plan string
	err := querier.QueryRowContext(ctx, query, tenantID).Scan(
		&tenant.ID,
		&tenant.Name,
		&plan,
		&tenant.IsActive,
		&tenant.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tenantDomain.ErrTenantNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get tenant")
	}
	tenant.Plan = tenantDomain.Plan(plan)

	return &tenant, nil
}

// GetPlan returns just the billing plan of a tenant. Used on the hot path of
// rate limiting, where the full tenant record is not needed.
func (t *PostgreSQLTenantRepository) GetPlan(
	ctx context.Context,
	tenantID uuid.UUID,
) (tenantDomain.Plan, error) {
	querier := database.Resolve(ctx, t.db)

	query := `SELECT plan FROM tenants WHERE id = $1`

	var plan string
	err := querier.QueryRowContext(ctx, query, tenantID).Scan(&plan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", tenantDomain.ErrTenantNotFound
		}
		return "", apperrors.Wrap(err, "failed to get tenant plan")
	}
	return tenantDomain.Plan(plan), nil
}

// NewPostgreSQLTenantRepository creates a new PostgreSQL Tenant repository.
func NewPostgreSQLTenantRepository(db *sql.DB) *PostgreSQLTenantRepository {
	return &PostgreSQLTenantRepository{db: db}
}
