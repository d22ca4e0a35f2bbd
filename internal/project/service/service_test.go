package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"reliefbase/backend/internal/access"
	"reliefbase/backend/internal/audit"
	"reliefbase/backend/internal/db"
	"reliefbase/backend/internal/db/dbtest"
	"reliefbase/backend/internal/identity"
	membershipdomain "reliefbase/backend/internal/membership/domain"
	"reliefbase/backend/internal/project/domain"
	"reliefbase/backend/internal/review"
)

// mockRepo implements repository.Repository with in-memory rosters so the
// lock-merge behavior is observable end to end.
type mockRepo struct {
	byID        map[int64]*domain.Project
	members     map[int64][]domain.Member
	assistances map[int64][]domain.AssistanceRef

	lockedMembers     map[int64]bool
	lockedAssistances map[int64]bool

	nextID int64
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*domain.Project, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) ListByOrg(_ context.Context, orgID int64, _, _ int32) ([]*domain.Project, error) {
	var out []*domain.Project
	for _, p := range m.byID {
		if p.OrgID == orgID && p.ManualStatus != domain.StatusDeleted {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockRepo) ListByIDs(_ context.Context, ids []int64, _, _ int32) ([]*domain.Project, error) {
	var out []*domain.Project
	for _, id := range ids {
		if p, ok := m.byID[id]; ok && p.ManualStatus != domain.StatusDeleted {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockRepo) CountByOrg(ctx context.Context, orgID int64) (int64, error) {
	out, _ := m.ListByOrg(ctx, orgID, 0, 0)
	return int64(len(out)), nil
}

func (m *mockRepo) CountByIDs(ctx context.Context, ids []int64) (int64, error) {
	out, _ := m.ListByIDs(ctx, ids, 0, 0)
	return int64(len(out)), nil
}

func (m *mockRepo) Create(_ context.Context, _ db.Querier, p *domain.Project) (int64, error) {
	m.nextID++
	cp := *p
	cp.ID = m.nextID
	m.byID[cp.ID] = &cp
	return cp.ID, nil
}

func (m *mockRepo) Update(_ context.Context, _ db.Querier, p *domain.Project) error {
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *mockRepo) SetManualStatus(_ context.Context, _ db.Querier, id int64, status domain.Status) error {
	m.byID[id].ManualStatus = status
	return nil
}

func (m *mockRepo) ListMembers(_ context.Context, projectID int64) ([]domain.Member, error) {
	return m.members[projectID], nil
}

func (m *mockRepo) ListAssistances(_ context.Context, projectID int64) ([]domain.AssistanceRef, error) {
	return m.assistances[projectID], nil
}

func (m *mockRepo) InsertMembers(_ context.Context, _ db.Querier, projectID int64, members []domain.Member) error {
	m.members[projectID] = append(m.members[projectID], members...)
	return nil
}

func (m *mockRepo) InsertAssistances(_ context.Context, _ db.Querier, projectID int64, refs []domain.AssistanceRef) error {
	m.assistances[projectID] = append(m.assistances[projectID], refs...)
	return nil
}

func (m *mockRepo) DeleteMembersExcept(_ context.Context, _ db.Querier, projectID int64, keep []int64) error {
	keepSet := make(map[int64]bool, len(keep))
	for _, id := range keep {
		keepSet[id] = true
	}
	var kept []domain.Member
	for _, mem := range m.members[projectID] {
		if keepSet[mem.MembershipID] {
			kept = append(kept, mem)
		}
	}
	m.members[projectID] = kept
	return nil
}

func (m *mockRepo) DeleteAssistancesExcept(_ context.Context, _ db.Querier, projectID int64, keep []int64) error {
	keepSet := make(map[int64]bool, len(keep))
	for _, id := range keep {
		keepSet[id] = true
	}
	var kept []domain.AssistanceRef
	for _, a := range m.assistances[projectID] {
		if keepSet[a.AssistanceID] {
			kept = append(kept, a)
		}
	}
	m.assistances[projectID] = kept
	return nil
}

func (m *mockRepo) IsMember(_ context.Context, projectID, membershipID int64, role domain.MemberRole) (bool, error) {
	for _, mem := range m.members[projectID] {
		if mem.MembershipID == membershipID && mem.Role == role {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) ProjectIDsForMembership(_ context.Context, membershipID int64, role domain.MemberRole) ([]int64, error) {
	var ids []int64
	for pid, roster := range m.members {
		for _, mem := range roster {
			if mem.MembershipID == membershipID && mem.Role == role {
				ids = append(ids, pid)
			}
		}
	}
	return ids, nil
}

func (m *mockRepo) LockedMemberIDs(context.Context, db.Querier, int64) (map[int64]bool, error) {
	return m.lockedMembers, nil
}

func (m *mockRepo) LockedAssistanceIDs(context.Context, db.Querier, int64) (map[int64]bool, error) {
	return m.lockedAssistances, nil
}

// mockRecorder captures audit entries.
type mockRecorder struct {
	entries []audit.Entry
}

func (m *mockRecorder) Record(_ context.Context, _ db.Querier, e audit.Entry) {
	m.entries = append(m.entries, e)
}

var (
	admin        = identity.Actor{UserID: 1, OrgID: 1, MembershipID: 100, Role: membershipdomain.RoleAdmin}
	collaborator = identity.Actor{UserID: 2, OrgID: 1, MembershipID: 200, Role: membershipdomain.RoleCollaborator}
)

func fixture(t *testing.T) (*Service, *mockRepo, *mockRecorder) {
	t.Helper()
	repo := &mockRepo{
		byID: map[int64]*domain.Project{
			1: {
				ID: 1, UID: "p-1", OrgID: 1, Name: "Winterization",
				StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
			},
		},
		members: map[int64][]domain.Member{
			1: {
				{MembershipID: 200, Role: domain.MemberRoleCollaborator},
				{MembershipID: 300, Role: domain.MemberRoleEnumerator},
				{MembershipID: 400, Role: domain.MemberRoleEnumerator},
			},
		},
		assistances: map[int64][]domain.AssistanceRef{
			1: {{AssistanceID: 7}, {AssistanceID: 8}},
		},
		lockedMembers:     map[int64]bool{},
		lockedAssistances: map[int64]bool{},
		nextID:            1,
	}
	rec := &mockRecorder{}
	svc := NewService(dbtest.NewPool(t), repo, access.NewEvaluator(repo), rec)
	svc.now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
	return svc, repo, rec
}

func updateInput(p *domain.Project) UpdateInput {
	return UpdateInput{
		Name:        p.Name,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		TargetCount: p.TargetCount,
	}
}

func memberIDs(members []domain.Member) map[int64]domain.MemberRole {
	out := make(map[int64]domain.MemberRole, len(members))
	for _, m := range members {
		out[m.MembershipID] = m.Role
	}
	return out
}

func TestCreate_AdminOnly(t *testing.T) {
	svc, _, _ := fixture(t)
	_, err := svc.Create(context.Background(), collaborator, CreateInput{
		Name:      "New",
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, review.ErrRoleNotAllowed) {
		t.Errorf("err = %v, want ErrRoleNotAllowed", err)
	}
}

func TestCreate_PersistsRosters(t *testing.T) {
	svc, repo, rec := fixture(t)

	v, err := svc.Create(context.Background(), admin, CreateInput{
		Name:        "New",
		StartDate:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Members:     []domain.Member{{MembershipID: 300, Role: domain.MemberRoleEnumerator}},
		Assistances: []domain.AssistanceRef{{AssistanceID: 7}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if v.Project.UID == "" {
		t.Error("uid not assigned")
	}
	if len(repo.members[v.Project.ID]) != 1 || len(repo.assistances[v.Project.ID]) != 1 {
		t.Error("rosters not persisted")
	}
	if len(rec.entries) != 1 || rec.entries[0].Action != "created" {
		t.Fatalf("audit = %+v, want one created entry", rec.entries)
	}
}

func TestUpdate_LockedMemberSurvivesOmission(t *testing.T) {
	svc, repo, _ := fixture(t)
	// Membership 300 authored live records; the edit tries to drop everyone
	// and add 500.
	repo.lockedMembers = map[int64]bool{300: true}

	in := updateInput(repo.byID[1])
	submitted := []domain.Member{{MembershipID: 500, Role: domain.MemberRoleEnumerator}}
	in.SelectedMembers = &submitted

	if _, err := svc.Update(context.Background(), admin, 1, in); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got := memberIDs(repo.members[1])
	if len(got) != 2 {
		t.Fatalf("roster = %v, want exactly {300, 500}", got)
	}
	if got[300] != domain.MemberRoleEnumerator {
		t.Errorf("locked member lost or changed: %v", got)
	}
	if got[500] != domain.MemberRoleEnumerator {
		t.Errorf("new member missing: %v", got)
	}
}

func TestUpdate_LockedMemberKeptVerbatim(t *testing.T) {
	svc, repo, _ := fixture(t)
	repo.lockedMembers = map[int64]bool{300: true}

	// The edit resubmits the locked member with a different role-in-project;
	// the stored entry must win.
	in := updateInput(repo.byID[1])
	submitted := []domain.Member{{MembershipID: 300, Role: domain.MemberRoleCollaborator}}
	in.SelectedMembers = &submitted

	if _, err := svc.Update(context.Background(), admin, 1, in); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got := memberIDs(repo.members[1])
	if got[300] != domain.MemberRoleEnumerator {
		t.Errorf("locked member role = %q, want original enumerator", got[300])
	}
}

func TestUpdate_LockedAssistanceSurvives(t *testing.T) {
	svc, repo, _ := fixture(t)
	repo.lockedAssistances = map[int64]bool{7: true}

	in := updateInput(repo.byID[1])
	submitted := []domain.AssistanceRef{{AssistanceID: 9}}
	in.SelectedAssistances = &submitted

	if _, err := svc.Update(context.Background(), admin, 1, in); err != nil {
		t.Fatalf("Update: %v", err)
	}

	ids := make(map[int64]bool)
	for _, a := range repo.assistances[1] {
		ids[a.AssistanceID] = true
	}
	if !ids[7] || !ids[9] || ids[8] {
		t.Errorf("assistances = %v, want {7, 9}", ids)
	}
}

func TestUpdate_NilRosterLeavesRosterAlone(t *testing.T) {
	svc, repo, _ := fixture(t)
	repo.lockedMembers = map[int64]bool{300: true}

	in := updateInput(repo.byID[1])
	in.Name = "Renamed"

	if _, err := svc.Update(context.Background(), admin, 1, in); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(repo.members[1]) != 3 || len(repo.assistances[1]) != 2 {
		t.Error("rosters must be untouched when not submitted")
	}
	if repo.byID[1].Name != "Renamed" {
		t.Error("field edit lost")
	}
}

func TestSoftDelete_MarksDeletedAndAudits(t *testing.T) {
	svc, repo, rec := fixture(t)

	if err := svc.SoftDelete(context.Background(), admin, 1); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if repo.byID[1].ManualStatus != domain.StatusDeleted {
		t.Errorf("manual status = %q, want deleted marker", repo.byID[1].ManualStatus)
	}
	if len(rec.entries) != 1 || rec.entries[0].Action != "deleted" {
		t.Fatalf("audit = %+v, want one deleted entry", rec.entries)
	}

	// Deleted projects read as not found afterwards.
	if _, err := svc.Get(context.Background(), admin, 1); !errors.Is(err, review.ErrNotFound) {
		t.Errorf("get after delete err = %v, want ErrNotFound", err)
	}
}

func TestGet_OffRosterCollaboratorDenied(t *testing.T) {
	svc, repo, _ := fixture(t)
	repo.members[1] = []domain.Member{{MembershipID: 300, Role: domain.MemberRoleEnumerator}}

	_, err := svc.Get(context.Background(), collaborator, 1)
	if !errors.Is(err, review.ErrAccessDenied) {
		t.Errorf("err = %v, want ErrAccessDenied", err)
	}
}

func TestList_UnassignedGetsEmptyPage(t *testing.T) {
	svc, _, _ := fixture(t)
	stranger := identity.Actor{UserID: 9, OrgID: 1, MembershipID: 900, Role: membershipdomain.RoleCollaborator}

	views, page, err := svc.List(context.Background(), stranger, 1, 20)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(views) != 0 || page.Total != 0 || page.TotalPages != 0 {
		t.Errorf("views=%d page=%+v, want empty zero-filled page", len(views), page)
	}
}

func TestLockInfo(t *testing.T) {
	svc, repo, _ := fixture(t)
	repo.lockedMembers = map[int64]bool{300: true, 200: true}
	repo.lockedAssistances = map[int64]bool{7: true}

	locks, err := svc.LockInfo(context.Background(), admin, 1)
	if err != nil {
		t.Fatalf("LockInfo: %v", err)
	}
	if len(locks.MemberIDs) != 2 || locks.MemberIDs[0] != 200 || locks.MemberIDs[1] != 300 {
		t.Errorf("member locks = %v, want [200 300]", locks.MemberIDs)
	}
	if len(locks.AssistanceIDs) != 1 || locks.AssistanceIDs[0] != 7 {
		t.Errorf("assistance locks = %v, want [7]", locks.AssistanceIDs)
	}

	if _, err := svc.LockInfo(context.Background(), collaborator, 1); !errors.Is(err, review.ErrRoleNotAllowed) {
		t.Errorf("collaborator err = %v, want ErrRoleNotAllowed", err)
	}
}
