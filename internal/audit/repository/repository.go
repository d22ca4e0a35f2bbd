package repository

import (
	"context"

	"reliefbase/backend/internal/audit/domain"
	"reliefbase/backend/internal/db"
)

// Repository defines persistence for audit logs. Append takes a querier so
// the recorder can write inside the caller's transaction.
type Repository interface {
	Append(ctx context.Context, q db.Querier, a *domain.AuditLog) error
	ListByOrg(ctx context.Context, orgID int64, limit, offset int32) ([]*domain.AuditLog, error)
	CountByOrg(ctx context.Context, orgID int64) (int64, error)
}
