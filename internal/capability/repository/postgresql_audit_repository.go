// Package repository implements persistence for the authorization audit trail.
//
// Provides PostgreSQL and MySQL implementations with transaction support via
// database.Resolve(). PostgreSQL uses native UUID types, MySQL uses BINARY(16).
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	capabilityDomain "github.com/opentab/gatekeeper/internal/capability/domain"
	"github.com/opentab/gatekeeper/internal/database"
	apperrors "github.com/opentab/gatekeeper/internal/errors"
)

const auditColumns = `id, actor_id, actor_tier, tenant_id, branch_id, action, decision,
	resource_id, correlation_id, before_state, after_state, created_at`

// PostgreSQLAuditRepository implements AuditEntry persistence for PostgreSQL.
type PostgreSQLAuditRepository struct {
	db *sql.DB
}

// Append writes one audit entry. The trail is append-only; there is no update
// or delete path.
func (p *PostgreSQLAuditRepository) Append(
	ctx context.Context,
	entry *capabilityDomain.AuditEntry,
) error {
	querier := database.Resolve(ctx, p.db)

	query := `INSERT INTO audit_entries (` + auditColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := querier.ExecContext(ctx, query,
		entry.ID,
		entry.ActorID,
		entry.ActorTier,
		entry.TenantID,
		uuid.NullUUID{UUID: derefUUID(entry.BranchID), Valid: entry.BranchID != nil},
		string(entry.Action),
		string(entry.Decision),
		entry.ResourceID,
		entry.CorrelationID,
		entry.BeforeState,
		entry.AfterState,
		entry.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to append audit entry")
	}
	return nil
}

// ListByTenant returns the newest audit entries for a tenant, newest first.
func (p *PostgreSQLAuditRepository) ListByTenant(
	ctx context.Context,
	tenantID uuid.UUID,
	limit int,
) ([]*capabilityDomain.AuditEntry, error) {
	querier := database.Resolve(ctx, p.db)

	query := `SELECT ` + auditColumns + ` FROM audit_entries
			  WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := querier.QueryContext(ctx, query, tenantID, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit entries")
	}
	defer func() { _ = rows.Close() }()

	var entries []*capabilityDomain.AuditEntry
	for rows.Next() {
		var entry capabilityDomain.AuditEntry
		var branchID uuid.NullUUID
		var action, decision string
		err = rows.Scan(
			&entry.ID,
			&entry.ActorID,
			&entry.ActorTier,
			&entry.TenantID,
			&branchID,
			&action,
			&decision,
			&entry.ResourceID,
			&entry.CorrelationID,
			&entry.BeforeState,
			&entry.AfterState,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit entry")
		}
		if branchID.Valid {
			entry.BranchID = &branchID.UUID
		}
		entry.Action = capabilityDomain.Action(action)
		entry.Decision = capabilityDomain.Decision(decision)
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit entries")
	}
	return entries, nil
}

func derefUUID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.UUID{}
	}
	return *id
}

// NewPostgreSQLAuditRepository creates a new PostgreSQL audit repository.
func NewPostgreSQLAuditRepository(db *sql.DB) *PostgreSQLAuditRepository {
	return &PostgreSQLAuditRepository{db: db}
}
