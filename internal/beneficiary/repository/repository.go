package repository

import (
	"context"
	"time"

	"reliefbase/backend/internal/beneficiary/domain"
	"reliefbase/backend/internal/db"
	"reliefbase/backend/internal/review"
)

// Filter narrows beneficiary listings. OrgID is always required; ProjectIDs
// nil means every project of the org; CreatedBy 0 means any creator. Deleted
// records are excluded unless Status explicitly asks for them.
type Filter struct {
	OrgID      int64
	ProjectIDs []int64
	ProjectID  int64
	CreatedBy  int64
	Status     review.Status
}

// Repository defines persistence for beneficiaries.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Beneficiary, error)
	List(ctx context.Context, f Filter, limit, offset int32) ([]*domain.Beneficiary, error)
	Count(ctx context.Context, f Filter) (int64, error)

	Create(ctx context.Context, q db.Querier, b *domain.Beneficiary) (int64, error)
	InsertMembers(ctx context.Context, q db.Querier, beneficiaryID int64, members []domain.Member) error
	ListMembers(ctx context.Context, beneficiaryID int64) ([]domain.Member, error)

	// ApplyReview performs the one-shot transition: it updates review fields
	// only while the record is still pending and reports whether a row was
	// affected. Run inside the caller's transaction.
	ApplyReview(ctx context.Context, q db.Querier, id int64, status review.Status, reviewerID int64, note *string, at time.Time) (bool, error)
	// SoftDelete marks the record deleted only while it is rejected and
	// reports whether a row was affected.
	SoftDelete(ctx context.Context, q db.Querier, id int64) (bool, error)

	// CountAuthoredBy and CountReviewedBy count non-deleted records for the
	// member-deletion guard.
	CountAuthoredBy(ctx context.Context, membershipID int64) (int64, error)
	CountReviewedBy(ctx context.Context, membershipID int64) (int64, error)
}
