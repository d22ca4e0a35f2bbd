package repository

import (
	"context"
	"time"

	"reliefbase/backend/internal/db"
	"reliefbase/backend/internal/delivery/domain"
	"reliefbase/backend/internal/review"
)

// Filter narrows delivery listings. Semantics match the beneficiary filter:
// OrgID required, nil ProjectIDs means the whole org, zero values mean "any",
// deleted records excluded unless Status asks for them.
type Filter struct {
	OrgID         int64
	ProjectIDs    []int64
	ProjectID     int64
	BeneficiaryID int64
	CreatedBy     int64
	Status        review.Status
}

// Repository defines persistence for deliveries.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Delivery, error)
	List(ctx context.Context, f Filter, limit, offset int32) ([]*domain.Delivery, error)
	Count(ctx context.Context, f Filter) (int64, error)

	Create(ctx context.Context, q db.Querier, d *domain.Delivery) (int64, error)
	InsertItems(ctx context.Context, q db.Querier, deliveryID int64, items []domain.Item) error
	ListItems(ctx context.Context, deliveryID int64) ([]domain.Item, error)

	// ApplyReview performs the one-shot transition inside the caller's
	// transaction; see the beneficiary repository for the contract.
	ApplyReview(ctx context.Context, q db.Querier, id int64, status review.Status, reviewerID int64, note *string, at time.Time) (bool, error)
	SoftDelete(ctx context.Context, q db.Querier, id int64) (bool, error)

	CountAuthoredBy(ctx context.Context, membershipID int64) (int64, error)
	CountReviewedBy(ctx context.Context, membershipID int64) (int64, error)
}
