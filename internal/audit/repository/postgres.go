package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"reliefbase/backend/internal/audit/domain"
	"reliefbase/backend/internal/db"
)

type PostgresRepository struct {
	q db.Querier
}

// NewPostgresRepository returns an audit log repository that uses the given querier for reads.
func NewPostgresRepository(q db.Querier) *PostgresRepository {
	return &PostgresRepository{q: q}
}

// Append persists the audit log on the given querier (pool or transaction).
func (r *PostgresRepository) Append(ctx context.Context, q db.Querier, a *domain.AuditLog) error {
	meta := a.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	rawMeta, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	var entityID sql.NullInt64
	if a.EntityID != nil {
		entityID = sql.NullInt64{Int64: *a.EntityID, Valid: true}
	}
	var batchUID sql.NullString
	if a.BatchUID != nil {
		batchUID = sql.NullString{String: *a.BatchUID, Valid: true}
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO audit_logs
		   (org_id, actor_membership_id, actor_role, action, entity_type, entity_id, batch_uid, metadata, ip_address, platform)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.OrgID, a.ActorMembershipID, a.ActorRole, a.Action, a.EntityType,
		entityID, batchUID, rawMeta, a.IPAddress, a.Platform,
	)
	return err
}

// ListByOrg returns audit logs for the given org, newest first, paginated by
// limit and offset.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID int64, limit, offset int32) ([]*domain.AuditLog, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, org_id, actor_membership_id, actor_role, action, entity_type, entity_id, batch_uid, metadata, ip_address, platform, created_at
		   FROM audit_logs WHERE org_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		orgID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AuditLog
	for rows.Next() {
		var (
			a        domain.AuditLog
			entityID sql.NullInt64
			batchUID sql.NullString
			rawMeta  []byte
		)
		if err := rows.Scan(&a.ID, &a.OrgID, &a.ActorMembershipID, &a.ActorRole, &a.Action,
			&a.EntityType, &entityID, &batchUID, &rawMeta, &a.IPAddress, &a.Platform, &a.CreatedAt); err != nil {
			return nil, err
		}
		if entityID.Valid {
			a.EntityID = &entityID.Int64
		}
		if batchUID.Valid {
			a.BatchUID = &batchUID.String
		}
		if len(rawMeta) > 0 {
			if err := json.Unmarshal(rawMeta, &a.Metadata); err != nil {
				return nil, err
			}
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// CountByOrg returns the total number of audit logs for the org.
func (r *PostgresRepository) CountByOrg(ctx context.Context, orgID int64) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs WHERE org_id = $1`, orgID).Scan(&n)
	return n, err
}
