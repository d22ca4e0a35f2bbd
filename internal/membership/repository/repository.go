package repository

import (
	"context"

	"reliefbase/backend/internal/db"
	"reliefbase/backend/internal/membership/domain"
)

// Repository defines persistence for memberships.
type Repository interface {
	GetMembershipByID(ctx context.Context, id int64) (*domain.Membership, error)
	ListMembershipsByOrg(ctx context.Context, orgID int64) ([]*domain.Membership, error)
	// CreateMembership and SetStatus run on the given querier so the caller
	// can pair them with an audit write in one transaction.
	CreateMembership(ctx context.Context, q db.Querier, m *domain.Membership) (int64, error)
	SetStatus(ctx context.Context, q db.Querier, id int64, status domain.Status) error
}
