package repository

import (
	"context"

	"reliefbase/backend/internal/organization/domain"
)

// Repository defines persistence for organizations.
type Repository interface {
	GetOrganizationByID(ctx context.Context, id int64) (*domain.Org, error)
	GetOrganizationByUID(ctx context.Context, uid string) (*domain.Org, error)
	CreateOrganization(ctx context.Context, o *domain.Org) (int64, error)
	SetCreator(ctx context.Context, orgID, membershipID int64) error
}
