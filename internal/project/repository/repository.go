package repository

import (
	"context"

	"reliefbase/backend/internal/db"
	"reliefbase/backend/internal/project/domain"
)

// Repository defines persistence for projects and their rosters.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Project, error)
	ListByOrg(ctx context.Context, orgID int64, limit, offset int32) ([]*domain.Project, error)
	ListByIDs(ctx context.Context, ids []int64, limit, offset int32) ([]*domain.Project, error)
	CountByOrg(ctx context.Context, orgID int64) (int64, error)
	CountByIDs(ctx context.Context, ids []int64) (int64, error)

	Create(ctx context.Context, q db.Querier, p *domain.Project) (int64, error)
	Update(ctx context.Context, q db.Querier, p *domain.Project) error
	SetManualStatus(ctx context.Context, q db.Querier, id int64, status domain.Status) error

	ListMembers(ctx context.Context, projectID int64) ([]domain.Member, error)
	ListAssistances(ctx context.Context, projectID int64) ([]domain.AssistanceRef, error)
	InsertMembers(ctx context.Context, q db.Querier, projectID int64, members []domain.Member) error
	InsertAssistances(ctx context.Context, q db.Querier, projectID int64, refs []domain.AssistanceRef) error
	// DeleteMembersExcept removes roster entries whose membership id is not in
	// keep. An empty keep set removes all members.
	DeleteMembersExcept(ctx context.Context, q db.Querier, projectID int64, keep []int64) error
	DeleteAssistancesExcept(ctx context.Context, q db.Querier, projectID int64, keep []int64) error

	// IsMember reports whether the membership is on the project roster with
	// the given role-in-project.
	IsMember(ctx context.Context, projectID, membershipID int64, role domain.MemberRole) (bool, error)
	// ProjectIDsForMembership returns projects where the membership holds the
	// given role-in-project.
	ProjectIDsForMembership(ctx context.Context, membershipID int64, role domain.MemberRole) ([]int64, error)

	// LockedMemberIDs returns membership ids that created any non-deleted
	// beneficiary or delivery of the project.
	LockedMemberIDs(ctx context.Context, q db.Querier, projectID int64) (map[int64]bool, error)
	// LockedAssistanceIDs returns assistance ids referenced by items of any
	// non-deleted delivery of the project.
	LockedAssistanceIDs(ctx context.Context, q db.Querier, projectID int64) (map[int64]bool, error)
}
