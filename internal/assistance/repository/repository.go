package repository

import (
	"context"

	"reliefbase/backend/internal/assistance/domain"
)

// Repository defines persistence for the assistance catalogue.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Assistance, error)
	ListByOrg(ctx context.Context, orgID int64) ([]*domain.Assistance, error)
	Create(ctx context.Context, a *domain.Assistance) (int64, error)
	Update(ctx context.Context, a *domain.Assistance) error
}
