package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	capabilityDomain "github.com/opentab/gatekeeper/internal/capability/domain"
	"github.com/opentab/gatekeeper/internal/database"
	apperrors "github.com/opentab/gatekeeper/internal/errors"
)

// MySQLAuditRepository implements AuditEntry persistence for MySQL.
type MySQLAuditRepository struct {
	db *sql.DB
}

// Append writes one audit entry.
func (m *MySQLAuditRepository) Append(
	ctx context.Context,
	entry *capabilityDomain.AuditEntry,
) error {
	querier := database.Resolve(ctx, m.db)

	idBytes, err := entry.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit entry ID")
	}
	actorBytes, err := entry.ActorID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal actor ID")
	}
	tenantBytes, err := entry.TenantID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal tenant ID")
	}
	var branchBytes []byte
	if entry.BranchID != nil {
		branchBytes, err = entry.BranchID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal branch ID")
		}
	}

	query := `INSERT INTO audit_entries (id, actor_id, actor_tier, tenant_id, branch_id, action,
			  decision, resource_id, correlation_id, before_state, after_state, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(ctx, query,
		idBytes,
		actorBytes,
		entry.ActorTier,
		tenantBytes,
		branchBytes,
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
func (m *MySQLAuditRepository) ListByTenant(
	ctx context.Context,
	tenantID uuid.UUID,
	limit int,
) ([]*capabilityDomain.AuditEntry, error) {
	querier := database.Resolve(ctx, m.db)

	tenantBytes, err := tenantID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal tenant ID")
	}

	query := `SELECT id, actor_id, actor_tier, tenant_id, branch_id, action, decision,
			  resource_id, correlation_id, before_state, after_state, created_at
			  FROM audit_entries WHERE tenant_id = ? ORDER BY created_at DESC LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, tenantBytes, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit entries")
	}
	defer func() { _ = rows.Close() }()

	var entries []*capabilityDomain.AuditEntry
	for rows.Next() {
		var entry capabilityDomain.AuditEntry
		var rawID, rawActor, rawTenant, rawBranch []byte
		var action, decision string
		err = rows.Scan(
			&rawID,
			&rawActor,
			&entry.ActorTier,
			&rawTenant,
			&rawBranch,
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

		entry.ID, err = uuid.FromBytes(rawID)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to parse audit entry ID")
		}
		entry.ActorID, err = uuid.FromBytes(rawActor)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to parse actor ID")
		}
		entry.TenantID, err = uuid.FromBytes(rawTenant)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to parse tenant ID")
		}
		if len(rawBranch) > 0 {
			branchID, err := uuid.FromBytes(rawBranch)
			if err != nil {
				return nil, apperrors.Wrap(err, "failed to parse branch ID")
			}
			entry.BranchID = &branchID
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

// NewMySQLAuditRepository creates a new MySQL audit repository.
func NewMySQLAuditRepository(db *sql.DB) *MySQLAuditRepository {
	return &MySQLAuditRepository{db: db}
}
