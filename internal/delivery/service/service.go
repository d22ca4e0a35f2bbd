// Package service implements delivery submission and the delivery half of
// the review state machine.
package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"reliefbase/backend/internal/access"
	"reliefbase/backend/internal/audit"
	"reliefbase/backend/internal/db"
	"reliefbase/backend/internal/delivery/domain"
	"reliefbase/backend/internal/delivery/repository"
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

// BeneficiaryChecker resolves the beneficiary a delivery belongs to.
type BeneficiaryChecker interface {
	ProjectOf(ctx context.Context, beneficiaryID int64) (projectID int64, deleted bool, err error)
}

// Service implements delivery operations.
type Service struct {
	pool          *sql.DB
	repo          repository.Repository
	projects      ProjectChecker
	beneficiaries BeneficiaryChecker
	policy        *access.Evaluator
	recorder      audit.Recorder
	now           func() time.Time
}

// NewService returns a delivery service with the given dependencies.
func NewService(pool *sql.DB, repo repository.Repository, projects ProjectChecker, beneficiaries BeneficiaryChecker, policy *access.Evaluator, recorder audit.Recorder) *Service {
	return &Service{pool: pool, repo: repo, projects: projects, beneficiaries: beneficiaries, policy: policy, recorder: recorder, now: time.Now}
}

// CreateInput carries a new delivery submission.
type CreateInput struct {
	ProjectID     int64
	BeneficiaryID int64
	DeliveryDate  time.Time
	Items         []domain.Item
	Platform      string
}

// Create records a delivery with review_status pending. Same submit rules as
// beneficiaries: enumerators on their projects, admins anywhere in the org.
// The beneficiary must belong to the same project and not be soft-deleted.
func (s *Service) Create(ctx context.Context, actor identity.Actor, in CreateInput) (*domain.Delivery, error) {
	if err := s.checkSubmitAccess(ctx, actor, in.ProjectID); err != nil {
		return nil, err
	}
	benProjectID, benDeleted, err := s.beneficiaries.ProjectOf(ctx, in.BeneficiaryID)
	if err != nil {
		return nil, err
	}
	if benProjectID == 0 || benDeleted {
		return nil, review.ErrNotFound
	}
	if benProjectID != in.ProjectID {
		return nil, errors.Join(ErrValidation, errors.New("beneficiary does not belong to the project"))
	}

	d := &domain.Delivery{
		ProjectID:             in.ProjectID,
		BeneficiaryID:         in.BeneficiaryID,
		DeliveryDate:          in.DeliveryDate,
		CreatedByMembershipID: actor.MembershipID,
		ReviewStatus:          review.StatusPending,
		Items:                 in.Items,
	}
	if err := d.Validate(); err != nil {
		return nil, errors.Join(ErrValidation, err)
	}

	err = db.InTx(ctx, s.pool, func(tx *sql.Tx) error {
		id, err := s.repo.Create(ctx, tx, d)
		if err != nil {
			return err
		}
		d.ID = id
		if err := s.repo.InsertItems(ctx, tx, id, in.Items); err != nil {
			return err
		}
		s.recorder.Record(ctx, tx, audit.Entry{
			Actor:      actor,
			Action:     "created",
			EntityType: "delivery",
			EntityID:   &d.ID,
			Metadata:   map[string]any{"project_id": d.ProjectID, "beneficiary_id": d.BeneficiaryID},
			Platform:   in.Platform,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Review applies a collaborator's one-shot approve/reject decision; see the
// beneficiary service for the shared contract.
func (s *Service) Review(ctx context.Context, actor identity.Actor, id int64, action review.Action, note string) (*domain.Delivery, error) {
	if err := review.CheckRequest(actor.Role, action, note); err != nil {
		return nil, err
	}
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, review.ErrNotFound
	}
	if err := s.inActorOrg(ctx, actor, d.ProjectID); err != nil {
		return nil, err
	}
	isCollab, err := s.projects.IsMember(ctx, d.ProjectID, actor.MembershipID, projectdomain.MemberRoleCollaborator)
	if err != nil {
		return nil, err
	}
	if !isCollab {
		return nil, review.ErrAccessDenied
	}
	if d.ReviewStatus != review.StatusPending {
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
		meta := map[string]any{"delivery_id": id}
		if notePtr != nil {
			meta["note"] = *notePtr
		}
		s.recorder.Record(ctx, tx, audit.Entry{
			Actor:      actor,
			Action:     string(status),
			EntityType: "delivery",
			EntityID:   &d.ProjectID,
			Metadata:   meta,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.ReviewStatus = status
	d.ReviewedByMembershipID = &actor.MembershipID
	d.ReviewedAt = &now
	d.ReviewNote = notePtr
	d.UpdatedAt = now
	return d, nil
}

// SoftDelete marks a rejected delivery deleted; same rules as beneficiaries.
func (s *Service) SoftDelete(ctx context.Context, actor identity.Actor, id int64, declaredStatus review.Status) error {
	if declaredStatus != review.StatusRejected {
		return review.ErrInvalidStatus
	}
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if d == nil || d.ReviewStatus == review.StatusDeleted {
		return review.ErrNotFound
	}
	if err := s.inActorOrg(ctx, actor, d.ProjectID); err != nil {
		return err
	}
	if actor.Role != membershipdomain.RoleAdmin && d.CreatedByMembershipID != actor.MembershipID {
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
			EntityType: "delivery",
			EntityID:   &d.ProjectID,
			Metadata:   map[string]any{"delivery_id": id},
		})
		return nil
	})
}

// Get returns one delivery with items, scope-checked for the actor.
func (s *Service) Get(ctx context.Context, actor identity.Actor, id int64) (*domain.Delivery, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil || d.ReviewStatus == review.StatusDeleted {
		return nil, review.ErrNotFound
	}
	if err := s.inActorOrg(ctx, actor, d.ProjectID); err != nil {
		return nil, err
	}
	scope, err := s.policy.RecordScope(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !scope.AllowsProject(d.ProjectID) {
		return nil, review.ErrAccessDenied
	}
	if scope.OwnRecordsOnly && d.CreatedByMembershipID != actor.MembershipID {
		return nil, review.ErrAccessDenied
	}
	items, err := s.repo.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Items = items
	return d, nil
}

// ListInput narrows a delivery listing.
type ListInput struct {
	ProjectID     int64
	BeneficiaryID int64
	Status        review.Status
	Page          int32
	PerPage       int32
}

// List returns the actor's visible deliveries, newest first.
func (s *Service) List(ctx context.Context, actor identity.Actor, in ListInput) ([]*domain.Delivery, pagination.Page, error) {
	if in.Status != "" && !in.Status.Listable() {
		return nil, pagination.Page{}, review.ErrInvalidStatus
	}
	scope, err := s.policy.RecordScope(ctx, actor)
	if err != nil {
		return nil, pagination.Page{}, err
	}
	page, perPage := pagination.Normalize(in.Page, in.PerPage)
	if !scope.All && len(scope.ProjectIDs) == 0 {
		return []*domain.Delivery{}, pagination.New(page, perPage, 0), nil
	}

	f := repository.Filter{
		OrgID:         actor.OrgID,
		ProjectID:     in.ProjectID,
		BeneficiaryID: in.BeneficiaryID,
		Status:        in.Status,
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
