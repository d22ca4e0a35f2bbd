// Package service implements project lifecycle operations, including the
// roster lock rules that keep historical records consistent across edits.
package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"reliefbase/backend/internal/access"
	"reliefbase/backend/internal/audit"
	"reliefbase/backend/internal/db"
	"reliefbase/backend/internal/identity"
	membershipdomain "reliefbase/backend/internal/membership/domain"
	"reliefbase/backend/internal/pagination"
	"reliefbase/backend/internal/project/domain"
	"reliefbase/backend/internal/project/repository"
	"reliefbase/backend/internal/review"
)

// ErrNameTaken is returned when a project name is already used in the org.
var ErrNameTaken = errors.New("project name already in use")

// ErrValidation wraps domain validation failures.
var ErrValidation = errors.New("validation failed")

// Service implements project operations.
type Service struct {
	pool     *sql.DB
	repo     repository.Repository
	policy   *access.Evaluator
	recorder audit.Recorder
	now      func() time.Time
}

// NewService returns a project service with the given dependencies.
func NewService(pool *sql.DB, repo repository.Repository, policy *access.Evaluator, recorder audit.Recorder) *Service {
	return &Service{pool: pool, repo: repo, policy: policy, recorder: recorder, now: time.Now}
}

// CreateInput carries the fields for a new project.
type CreateInput struct {
	Name        string
	StartDate   time.Time
	EndDate     time.Time
	TargetCount int32
	Members     []domain.Member
	Assistances []domain.AssistanceRef
}

// UpdateInput carries a project edit. Nil roster slices leave the roster
// untouched; non-nil slices replace the unlocked subset.
type UpdateInput struct {
	Name                string
	StartDate           time.Time
	EndDate             time.Time
	TargetCount         int32
	ManualStatus        domain.Status
	SelectedMembers     *[]domain.Member
	SelectedAssistances *[]domain.AssistanceRef
}

// View is a project together with its derived status and rosters.
type View struct {
	Project     *domain.Project
	Status      domain.Status
	Members     []domain.Member
	Assistances []domain.AssistanceRef
}

// Locks reports which roster entries of a project cannot be removed because
// live records still reference them.
type Locks struct {
	MemberIDs     []int64
	AssistanceIDs []int64
}

// Create creates a project with its rosters. Admin only.
func (s *Service) Create(ctx context.Context, actor identity.Actor, in CreateInput) (*View, error) {
	if actor.Role != membershipdomain.RoleAdmin {
		return nil, review.ErrRoleNotAllowed
	}
	p := &domain.Project{
		UID:         uuid.New().String(),
		OrgID:       actor.OrgID,
		Name:        in.Name,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		TargetCount: in.TargetCount,
	}
	if err := p.Validate(); err != nil {
		return nil, errors.Join(ErrValidation, err)
	}
	for _, m := range in.Members {
		if !m.Role.Valid() {
			return nil, errors.Join(ErrValidation, errors.New("invalid project member role"))
		}
	}

	err := db.InTx(ctx, s.pool, func(tx *sql.Tx) error {
		id, err := s.repo.Create(ctx, tx, p)
		if err != nil {
			return translateConflict(err)
		}
		p.ID = id
		if err := s.repo.InsertMembers(ctx, tx, id, in.Members); err != nil {
			return err
		}
		if err := s.repo.InsertAssistances(ctx, tx, id, in.Assistances); err != nil {
			return err
		}
		s.recorder.Record(ctx, tx, audit.Entry{
			Actor:      actor,
			Action:     "created",
			EntityType: "project",
			EntityID:   &p.ID,
			Metadata:   map[string]any{"name": p.Name},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &View{Project: p, Status: p.StatusAt(s.now()), Members: in.Members, Assistances: in.Assistances}, nil
}

// Update edits a project. Roster entries still referenced by non-deleted
// records are preserved verbatim no matter what the caller submits; only the
// unlocked subset is replaced. Admin only.
func (s *Service) Update(ctx context.Context, actor identity.Actor, projectID int64, in UpdateInput) (*View, error) {
	if actor.Role != membershipdomain.RoleAdmin {
		return nil, review.ErrRoleNotAllowed
	}
	p, err := s.visibleProject(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}

	p.Name = in.Name
	p.StartDate = in.StartDate
	p.EndDate = in.EndDate
	p.TargetCount = in.TargetCount
	p.ManualStatus = in.ManualStatus
	if err := p.Validate(); err != nil {
		return nil, errors.Join(ErrValidation, err)
	}

	err = db.InTx(ctx, s.pool, func(tx *sql.Tx) error {
		if err := s.repo.Update(ctx, tx, p); err != nil {
			return translateConflict(err)
		}
		if in.SelectedMembers != nil {
			if err := s.mergeMembers(ctx, tx, projectID, *in.SelectedMembers); err != nil {
				return err
			}
		}
		if in.SelectedAssistances != nil {
			if err := s.mergeAssistances(ctx, tx, projectID, *in.SelectedAssistances); err != nil {
				return err
			}
		}
		s.recorder.Record(ctx, tx, audit.Entry{
			Actor:      actor,
			Action:     "updated",
			EntityType: "project",
			EntityID:   &p.ID,
			Metadata:   map[string]any{"name": p.Name},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, projectID)
}

// mergeMembers replaces the unlocked subset of the member roster with the
// submitted entries. Locked members survive even when omitted.
func (s *Service) mergeMembers(ctx context.Context, tx *sql.Tx, projectID int64, submitted []domain.Member) error {
	locked, err := s.repo.LockedMemberIDs(ctx, tx, projectID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteMembersExcept(ctx, tx, projectID, setToSlice(locked)); err != nil {
		return err
	}
	var insert []domain.Member
	seen := make(map[int64]bool)
	for _, m := range submitted {
		if !m.Role.Valid() {
			return errors.Join(ErrValidation, errors.New("invalid project member role"))
		}
		if locked[m.MembershipID] || seen[m.MembershipID] {
			continue
		}
		seen[m.MembershipID] = true
		insert = append(insert, m)
	}
	return s.repo.InsertMembers(ctx, tx, projectID, insert)
}

// mergeAssistances replaces the unlocked subset of the assistance roster.
func (s *Service) mergeAssistances(ctx context.Context, tx *sql.Tx, projectID int64, submitted []domain.AssistanceRef) error {
	locked, err := s.repo.LockedAssistanceIDs(ctx, tx, projectID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteAssistancesExcept(ctx, tx, projectID, setToSlice(locked)); err != nil {
		return err
	}
	var insert []domain.AssistanceRef
	seen := make(map[int64]bool)
	for _, a := range submitted {
		if locked[a.AssistanceID] || seen[a.AssistanceID] {
			continue
		}
		seen[a.AssistanceID] = true
		insert = append(insert, a)
	}
	return s.repo.InsertAssistances(ctx, tx, projectID, insert)
}

// Get returns one project with rosters, scope-checked for the actor.
func (s *Service) Get(ctx context.Context, actor identity.Actor, projectID int64) (*View, error) {
	scope, err := s.policy.ProjectScope(ctx, actor)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.OrgID != actor.OrgID || p.ManualStatus == domain.StatusDeleted {
		return nil, review.ErrNotFound
	}
	if !scope.AllowsProject(p.ID) {
		return nil, review.ErrAccessDenied
	}
	members, err := s.repo.ListMembers(ctx, projectID)
	if err != nil {
		return nil, err
	}
	assistances, err := s.repo.ListAssistances(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &View{Project: p, Status: p.StatusAt(s.now()), Members: members, Assistances: assistances}, nil
}

// List returns the actor's visible projects, newest first. An actor assigned
// to no project gets an empty, zero-filled page.
func (s *Service) List(ctx context.Context, actor identity.Actor, page, perPage int32) ([]*View, pagination.Page, error) {
	scope, err := s.policy.ProjectScope(ctx, actor)
	if err != nil {
		return nil, pagination.Page{}, err
	}
	page, perPage = pagination.Normalize(page, perPage)
	offset := pagination.Offset(page, perPage)

	var (
		projects []*domain.Project
		total    int64
	)
	if scope.All {
		projects, err = s.repo.ListByOrg(ctx, actor.OrgID, perPage, offset)
		if err != nil {
			return nil, pagination.Page{}, err
		}
		total, err = s.repo.CountByOrg(ctx, actor.OrgID)
	} else {
		if len(scope.ProjectIDs) == 0 {
			return []*View{}, pagination.New(page, perPage, 0), nil
		}
		projects, err = s.repo.ListByIDs(ctx, scope.ProjectIDs, perPage, offset)
		if err != nil {
			return nil, pagination.Page{}, err
		}
		total, err = s.repo.CountByIDs(ctx, scope.ProjectIDs)
	}
	if err != nil {
		return nil, pagination.Page{}, err
	}

	now := s.now()
	views := make([]*View, len(projects))
	for i, p := range projects {
		views[i] = &View{Project: p, Status: p.StatusAt(now)}
	}
	return views, pagination.New(page, perPage, total), nil
}

// SoftDelete marks the project deleted. Admin only.
func (s *Service) SoftDelete(ctx context.Context, actor identity.Actor, projectID int64) error {
	if actor.Role != membershipdomain.RoleAdmin {
		return review.ErrRoleNotAllowed
	}
	p, err := s.visibleProject(ctx, actor, projectID)
	if err != nil {
		return err
	}
	return db.InTx(ctx, s.pool, func(tx *sql.Tx) error {
		if err := s.repo.SetManualStatus(ctx, tx, p.ID, domain.StatusDeleted); err != nil {
			return err
		}
		s.recorder.Record(ctx, tx, audit.Entry{
			Actor:      actor,
			Action:     "deleted",
			EntityType: "project",
			EntityID:   &p.ID,
		})
		return nil
	})
}

// LockInfo returns which roster entries are locked by live records. Admin only.
func (s *Service) LockInfo(ctx context.Context, actor identity.Actor, projectID int64) (*Locks, error) {
	if actor.Role != membershipdomain.RoleAdmin {
		return nil, review.ErrRoleNotAllowed
	}
	if _, err := s.visibleProject(ctx, actor, projectID); err != nil {
		return nil, err
	}
	members, err := s.repo.LockedMemberIDs(ctx, s.pool, projectID)
	if err != nil {
		return nil, err
	}
	assistances, err := s.repo.LockedAssistanceIDs(ctx, s.pool, projectID)
	if err != nil {
		return nil, err
	}
	return &Locks{MemberIDs: setToSlice(members), AssistanceIDs: setToSlice(assistances)}, nil
}

// visibleProject fetches a non-deleted project of the actor's org or returns
// ErrNotFound.
func (s *Service) visibleProject(ctx context.Context, actor identity.Actor, projectID int64) (*domain.Project, error) {
	p, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.OrgID != actor.OrgID || p.ManualStatus == domain.StatusDeleted {
		return nil, review.ErrNotFound
	}
	return p, nil
}

func setToSlice(set map[int64]bool) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// translateConflict maps a Postgres unique violation to ErrNameTaken.
func translateConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrNameTaken
	}
	return err
}
