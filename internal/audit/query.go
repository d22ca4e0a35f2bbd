package audit

import (
	"context"
	"fmt"

	"reliefbase/backend/internal/audit/domain"
	"reliefbase/backend/internal/audit/repository"
	"reliefbase/backend/internal/identity"
	membershipdomain "reliefbase/backend/internal/membership/domain"
	"reliefbase/backend/internal/pagination"
	"reliefbase/backend/internal/review"
)

// Query reads the audit trail. Admin only.
type Query struct {
	repo repository.Repository
}

func NewQuery(repo repository.Repository) *Query {
	return &Query{repo: repo}
}

// List returns the org's audit log, newest first.
func (q *Query) List(ctx context.Context, actor identity.Actor, page, perPage int32) ([]*domain.AuditLog, pagination.Page, error) {
	if actor.Role != membershipdomain.RoleAdmin {
		return nil, pagination.Page{}, review.ErrRoleNotAllowed
	}
	page, perPage = pagination.Normalize(page, perPage)
	total, err := q.repo.CountByOrg(ctx, actor.OrgID)
	if err != nil {
		return nil, pagination.Page{}, fmt.Errorf("count audit logs: %w", err)
	}
	logs, err := q.repo.ListByOrg(ctx, actor.OrgID, perPage, pagination.Offset(page, perPage))
	if err != nil {
		return nil, pagination.Page{}, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, pagination.New(page, perPage, total), nil
}
