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

// MySQLTenantRepository implements Tenant persistence for MySQL.
type MySQLTenantRepository struct {
	db *sql.DB
}

// Get retrieves a Tenant by ID.
func (t *MySQLTenantRepository) Get(
	ctx context.Context,
	tenantID uuid.UUID,
) (*tenantDomain.Tenant, error) {
	querier := database.Resolve(ctx, t.db)

	idBytes, err := tenantID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal tenant ID")
	}

	query := `SELECT id, name, plan, is_active, created_at FROM tenants WHERE id = ?`

	var tenant tenantDomain.Tenant
	var rawID []byte
	var plan string
	err = querier.QueryRowContext(ctx, query, idBytes).Scan(
		&rawID,
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

	tenant.ID, err = uuid.FromBytes(rawID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse tenant ID")
	}
	tenant.Plan = tenantDomain.Plan(plan)

	return &tenant, nil
}

// GetPlan returns just the billing plan of a tenant.
func (t *MySQLTenantRepository) GetPlan(
	ctx context.Context,
	tenantID uuid.UUID,
) (tenantDomain.Plan, error) {
	querier := database.Resolve(ctx, t.db)

	idBytes, err := tenantID.MarshalBinary()
	if err != nil {
		return "", apperrors.Wrap(err, "failed to marshal tenant ID")
	}

	query := `SELECT plan FROM tenants WHERE id = ?`

	var plan string
	err = querier.QueryRowContext(ctx, query, idBytes).Scan(&plan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", tenantDomain.ErrTenantNotFound
		}
		return "", apperrors.Wrap(err, "failed to get tenant plan")
	}
	return tenantDomain.Plan(plan), nil
}

// NewMySQLTenantRepository creates a new MySQL Tenant repository.
func NewMySQLTenantRepository(db *sql.DB) *MySQLTenantRepository {
	return &MySQLTenantRepository{db: db}
}
