// Package service implements membership management and the member-deletion
// guard that keeps referenced memberships from being deactivated.
package service

import (
	"context"
	"database/sql"
	"errors"

	"reliefbase/backend/internal/audit"
	"reliefbase/backend/internal/db"
	"reliefbase/backend/internal/identity"
	"reliefbase/backend/internal/membership/domain"
	"reliefbase/backend/internal/membership/repository"
	orgdomain "reliefbase/backend/internal/organization/domain"
	"reliefbase/backend/internal/review"
)

// Sentinel errors for membership operations; handlers map them to HTTP statuses.
var (
	// ErrDeactivationBlocked: non-deleted records still reference the
	// membership, or it founded the organization.
	ErrDeactivationBlocked = errors.New("membership is still referenced and cannot be deactivated")
	// ErrAlreadyInactive: the membership is already deactivated.
	ErrAlreadyInactive = errors.New("membership is already inactive")
	// ErrValidation wraps input validation failures.
	ErrValidation = errors.New("validation failed")
)

// UsageCounter counts non-deleted records referencing a membership. The
// beneficiary and delivery repositories implement it.
type UsageCounter interface {
	CountAuthoredBy(ctx context.Context, membershipID int64) (int64, error)
	CountReviewedBy(ctx context.Context, membershipID int64) (int64, error)
}

// OrgGetter resolves an organization; used for the founding-admin check.
type OrgGetter interface {
	GetOrganizationByID(ctx context.Context, id int64) (*orgdomain.Org, error)
}

// Service implements membership operations.
type Service struct {
	pool          *sql.DB
	repo          repository.Repository
	orgs          OrgGetter
	beneficiaries UsageCounter
	deliveries    UsageCounter
	recorder      audit.Recorder
}

// NewService returns a membership service with the given dependencies.
func NewService(pool *sql.DB, repo repository.Repository, orgs OrgGetter, beneficiaries, deliveries UsageCounter, recorder audit.Recorder) *Service {
	return &Service{pool: pool, repo: repo, orgs: orgs, beneficiaries: beneficiaries, deliveries: deliveries, recorder: recorder}
}

// Create adds a membership to the actor's organization. Admin only.
func (s *Service) Create(ctx context.Context, actor identity.Actor, userID int64, role domain.Role) (*domain.Membership, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, review.ErrRoleNotAllowed
	}
	if !role.Valid() {
		return nil, errors.Join(ErrValidation, errors.New("unknown role"))
	}
	if userID == 0 {
		return nil, errors.Join(ErrValidation, errors.New("user id is required"))
	}
	m := &domain.Membership{
		UserID: userID,
		OrgID:  actor.OrgID,
		Role:   role,
		Status: domain.StatusActive,
	}
	err := db.InTx(ctx, s.pool, func(tx *sql.Tx) error {
		id, err := s.repo.CreateMembership(ctx, tx, m)
		if err != nil {
			return err
		}
		m.ID = id
		s.recorder.Record(ctx, tx, audit.Entry{
			Actor:      actor,
			Action:     "created",
			EntityType: "membership",
			EntityID:   &m.ID,
			Metadata:   map[string]any{"role": string(role), "user_id": userID},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// List returns the memberships of the actor's organization. Admin only.
func (s *Service) List(ctx context.Context, actor identity.Actor) ([]*domain.Membership, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, review.ErrRoleNotAllowed
	}
	return s.repo.ListMembershipsByOrg(ctx, actor.OrgID)
}

// CheckDeactivate computes the deactivation blockers for a membership
// without changing anything. Admin only.
//
// Enumerators are blocked by records they authored, collaborators by records
// they reviewed, and admins by either plus having founded the organization.
func (s *Service) CheckDeactivate(ctx context.Context, actor identity.Actor, membershipID int64) (*domain.DeactivationCheck, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, review.ErrRoleNotAllowed
	}
	m, err := s.repo.GetMembershipByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if m == nil || m.OrgID != actor.OrgID {
		return nil, review.ErrNotFound
	}
	return s.computeBlockers(ctx, m)
}

// Deactivate marks a membership inactive. The guard is a hard gate: any
// blocker refuses the deactivation with ErrDeactivationBlocked. Admin only.
func (s *Service) Deactivate(ctx context.Context, actor identity.Actor, membershipID int64) (*domain.DeactivationCheck, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, review.ErrRoleNotAllowed
	}
	m, err := s.repo.GetMembershipByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if m == nil || m.OrgID != actor.OrgID {
		return nil, review.ErrNotFound
	}
	if m.Status == domain.StatusInactive {
		return nil, ErrAlreadyInactive
	}
	check, err := s.computeBlockers(ctx, m)
	if err != nil {
		return nil, err
	}
	if !check.CanDelete {
		return check, ErrDeactivationBlocked
	}

	err = db.InTx(ctx, s.pool, func(tx *sql.Tx) error {
		if err := s.repo.SetStatus(ctx, tx, membershipID, domain.StatusInactive); err != nil {
			return err
		}
		s.recorder.Record(ctx, tx, audit.Entry{
			Actor:      actor,
			Action:     "deactivated",
			EntityType: "membership",
			EntityID:   &membershipID,
			Metadata:   map[string]any{"role": string(m.Role)},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return check, nil
}

func (s *Service) computeBlockers(ctx context.Context, m *domain.Membership) (*domain.DeactivationCheck, error) {
	var blockers []domain.Blocker

	addAuthored := func() error {
		n, err := s.beneficiaries.CountAuthoredBy(ctx, m.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			blockers = append(blockers, domain.Blocker{Entity: "beneficiaries", Count: n, Reason: "membership authored beneficiary records"})
		}
		n, err = s.deliveries.CountAuthoredBy(ctx, m.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			blockers = append(blockers, domain.Blocker{Entity: "deliveries", Count: n, Reason: "membership authored delivery records"})
		}
		return nil
	}
	addReviewed := func() error {
		n, err := s.beneficiaries.CountReviewedBy(ctx, m.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			blockers = append(blockers, domain.Blocker{Entity: "beneficiaries", Count: n, Reason: "membership reviewed beneficiary records"})
		}
		n, err = s.deliveries.CountReviewedBy(ctx, m.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			blockers = append(blockers, domain.Blocker{Entity: "deliveries", Count: n, Reason: "membership reviewed delivery records"})
		}
		return nil
	}

	switch m.Role {
	case domain.RoleEnumerator:
		if err := addAuthored(); err != nil {
			return nil, err
		}
	case domain.RoleCollaborator:
		if err := addReviewed(); err != nil {
			return nil, err
		}
	case domain.RoleAdmin:
		// An admin can act as either creator or reviewer, and the founding
		// admin can never be removed.
		org, err := s.orgs.GetOrganizationByID(ctx, m.OrgID)
		if err != nil {
			return nil, err
		}
		if org != nil && org.CreatedByMembershipID == m.ID {
			blockers = append(blockers, domain.Blocker{Entity: "organization", Count: 1, Reason: "membership is the organization creator"})
		}
		if err := addAuthored(); err != nil {
			return nil, err
		}
		if err := addReviewed(); err != nil {
			return nil, err
		}
	}

	return &domain.DeactivationCheck{CanDelete: len(blockers) == 0, Blockers: blockers}, nil
}
