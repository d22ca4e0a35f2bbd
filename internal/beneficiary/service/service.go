// Package service implements beneficiary submission and the beneficiary half
// of the review state machine.
package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"reliefbase/backend/internal/access"
	"reliefbase/backend/internal/audit"
	"reliefbase/backend/internal/beneficiary/domain"
	"reliefbase/backend/internal/beneficiary/repository"
	"reliefbase/backend/internal/db"
	"reliefbase/backend/internal/identity"
	membershipdomain "reliefbase/backend/internal/membership/domain"
	"reliefbase/backend/internal/pagination"
	projectdomain "reliefbase/backend/internal/project/domain"
	"reliefbase/backend/internal/review"
)

// ErrValidation wraps input validation failures.
var ErrValidation = errors.New("validation failed")

// ProjectChecker is the minimal project access needed by record services.
type ProjectChecker interface {
	GetByID(ctx context.Context, id int64) (*projectdomain.Project, error)
	IsMember(ctx context.Context, projectID, membershipID int64, role projectdomain.MemberRole) (bool, error)
}

// Service implements beneficiary operations.
type Service struct {
	pool     *sql.DB
	repo     repository.Repository
	projects ProjectChecker
	policy   *access.Evaluator
	recorder audit.Recorder
	now      func() time.Time
}

// NewService returns a beneficiary service with the given dependencies.
func NewService(pool *sql.DB, repo repository.Repository, projects ProjectChecker, policy *access.Evaluator, recorder audit.Recorder) *Service {
	return &Service{pool: pool, repo: repo, projects: projects, policy: policy, recorder: recorder, now: time.Now}
}

// CreateInput carries a new beneficiary registration.
type CreateInput struct {
	ProjectID  int64
	FamilyCode string
	HeadName   string
	Phone      string
	Address    string
	Members    []domain.Member
	Platform   string
}

// Create registers a beneficiary with review_status pending. Enumerators may
// submit only to projects they enumerate for; admins may submit to any
// project of their org. Collaborators cannot submit.
func (s *Service) Create(ctx context.Context, actor identity.Actor, in CreateInput) (*domain.Beneficiary, error) {
	if err := s.checkSubmitAccess(ctx, actor, in.ProjectID); err != nil {
		return nil, err
	}
	b := &domain.Beneficiary{
		ProjectID:             in.ProjectID,
		FamilyCode:            in.FamilyCode,
		HeadName:              in.HeadName,
		Phone:                 in.Phone,
		Address:               in.Address,
		CreatedByMembershipID: actor.MembershipID,
		ReviewStatus:          review.StatusPending,
		Members:               in.Members,
	}
	if err := b.Validate(); err != nil {
		return nil, errors.Join(ErrValidation, err)
	}

	err := db.InTx(ctx, s.pool, func(tx *sql.Tx) error {
		id, err := s.repo.Create(ctx, tx, b)
		if err != nil {
			return err
		}
		b.ID = id
		if err := s.repo.InsertMembers(ctx, tx, id, in.Members); err != nil {
			return err
		}
		s.recorder.Record(ctx, tx, audit.Entry{
			Actor:      actor,
			Action:     "created",
			EntityType: "beneficiary",
			EntityID:   &b.ID,
			Metadata:   map[string]any{"project_id": b.ProjectID, "family_code": b.FamilyCode},
			Platform:   in.Platform,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Review applies a collaborator's one-shot approve/reject decision. The
// pending precondition is re-checked by the conditional update inside the
// transaction, so of two concurrent reviews exactly one applies and the
// other returns ErrAlreadyReviewed.
func (s *Service) Review(ctx context.Context, actor identity.Actor, id int64, action review.Action, note string) (*domain.Beneficiary, error) {
	if err := review.CheckRequest(actor.Role, action, note); err != nil {
		return nil, err
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, review.ErrNotFound
	}
	if err := s.inActorOrg(ctx, actor, b.ProjectID); err != nil {
		return nil, err
	}
	isCollab, err := s.projects.IsMember(ctx, b.ProjectID, actor.MembershipID, projectdomain.MemberRoleCollaborator)
	if err != nil {
		return nil, err
	}
	if !isCollab {
		return nil, review.ErrAccessDenied
	}
	if b.ReviewStatus != review.StatusPending {
		return nil, review.ErrAlreadyReviewed
	}

	var notePtr *string
	if trimmed := strings.TrimSpace(note); trimmed != "" {
		notePtr = &trimmed
	}
	now := s.now().UTC()
	status := action.StatusFor()

	err = db.InTx(ctx, s.pool, func(tx *sql.Tx) error {
		applied, err := s.repo.ApplyReview(ctx, tx, id, status, actor.MembershipID, notePtr, now)
		if err != nil {
			return err
		}
		if !applied {
			return review.ErrAlreadyReviewed
		}
		// Deployed convention: review audit entries carry the owning
		// project id as entity_id, not the record's own id.
		meta := map[string]any{"beneficiary_id": id}
		if notePtr != nil {
			meta["note"] = *notePtr
		}
		s.recorder.Record(ctx, tx, audit.Entry{
			Actor:      actor,
			Action:     string(status),
			EntityType: "beneficiary",
			EntityID:   &b.ProjectID,
			Metadata:   meta,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.ReviewStatus = status
	b.ReviewedByMembershipID = &actor.MembershipID
	b.ReviewedAt = &now
	b.ReviewNote = notePtr
	b.UpdatedAt = now
	return b, nil
}

// SoftDelete marks a rejected beneficiary deleted. The caller declares the
// status it believes the record is in; anything but "rejected" fails with
// ErrInvalidStatus, and the conditional update re-checks it in the
// transaction. Allowed for admins and the record's creator.
func (s *Service) SoftDelete(ctx context.Context, actor identity.Actor, id int64, declaredStatus review.Status) error {
	if declaredStatus != review.StatusRejected {
		return review.ErrInvalidStatus
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if b == nil || b.ReviewStatus == review.StatusDeleted {
		return review.ErrNotFound
	}
	if err := s.inActorOrg(ctx, actor, b.ProjectID); err != nil {
		return err
	}
	if actor.Role != membershipdomain.RoleAdmin && b.CreatedByMembershipID != actor.MembershipID {
		return review.ErrAccessDenied
	}

	return db.InTx(ctx, s.pool, func(tx *sql.Tx) error {
		applied, err := s.repo.SoftDelete(ctx, tx, id)
		if err != nil {
			return err
		}
		if !applied {
			return review.ErrInvalidStatus
		}
		s.recorder.Record(ctx, tx, audit.Entry{
			Actor:      actor,
			Action:     "deleted",
			EntityType: "beneficiary",
			EntityID:   &b.ProjectID,
			Metadata:   map[string]any{"beneficiary_id": id},
		})
		return nil
	})
}

// Get returns one beneficiary, scope-checked for the actor. Soft-deleted
// records are not found.
func (s *Service) Get(ctx context.Context, actor identity.Actor, id int64) (*domain.Beneficiary, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil || b.ReviewStatus == review.StatusDeleted {
		return nil, review.ErrNotFound
	}
	if err := s.inActorOrg(ctx, actor, b.ProjectID); err != nil {
		return nil, err
	}
	scope, err := s.policy.RecordScope(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !scope.AllowsProject(b.ProjectID) {
		return nil, review.ErrAccessDenied
	}
	if scope.OwnRecordsOnly && b.CreatedByMembershipID != actor.MembershipID {
		return nil, review.ErrAccessDenied
	}
	members, err := s.repo.ListMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Members = members
	return b, nil
}

// ListInput narrows a beneficiary listing.
type ListInput struct {
	ProjectID int64
	Status    review.Status
	Page      int32
	PerPage   int32
}

// List returns the actor's visible beneficiaries, newest first. An actor with
// no project assignment gets an empty, zero-filled page.
func (s *Service) List(ctx context.Context, actor identity.Actor, in ListInput) ([]*domain.Beneficiary, pagination.Page, error) {
	if in.Status != "" && !in.Status.Listable() {
		return nil, pagination.Page{}, review.ErrInvalidStatus
	}
	scope, err := s.policy.RecordScope(ctx, actor)
	if err != nil {
		return nil, pagination.Page{}, err
	}
	page, perPage := pagination.Normalize(in.Page, in.PerPage)
	if !scope.All && len(scope.ProjectIDs) == 0 {
		return []*domain.Beneficiary{}, pagination.New(page, perPage, 0), nil
	}

	f := repository.Filter{
		OrgID:     actor.OrgID,
		ProjectID: in.ProjectID,
		Status:    in.Status,
	}
	if !scope.All {
		f.ProjectIDs = scope.ProjectIDs
	}
	if scope.OwnRecordsOnly {
		f.CreatedBy = actor.MembershipID
	}

	items, err := s.repo.List(ctx, f, perPage, pagination.Offset(page, perPage))
	if err != nil {
		return nil, pagination.Page{}, err
	}
	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return nil, pagination.Page{}, err
	}
	return items, pagination.New(page, perPage, total), nil
}

// checkSubmitAccess verifies the actor may create records in the project.
func (s *Service) checkSubmitAccess(ctx context.Context, actor identity.Actor, projectID int64) error {
	switch actor.Role {
	case membershipdomain.RoleAdmin:
		return s.inActorOrg(ctx, actor, projectID)
	case membershipdomain.RoleEnumerator:
		if err := s.inActorOrg(ctx, actor, projectID); err != nil {
			return err
		}
		ok, err := s.projects.IsMember(ctx, projectID, actor.MembershipID, projectdomain.MemberRoleEnumerator)
		if err != nil {
			return err
		}
		if !ok {
			return review.ErrAccessDenied
		}
		return nil
	}
	return review.ErrRoleNotAllowed
}

// inActorOrg resolves the project and hides cross-tenant existence as
// ErrNotFound.
func (s *Service) inActorOrg(ctx context.Context, actor identity.Actor, projectID int64) error {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if p == nil || p.OrgID != actor.OrgID || p.ManualStatus == projectdomain.StatusDeleted {
		return review.ErrNotFound
	}
	return nil
}
