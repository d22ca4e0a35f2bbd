package access

import (
	"context"
	"errors"
	"testing"

	"reliefbase/backend/internal/identity"
	membershipdomain "reliefbase/backend/internal/membership/domain"
	projectdomain "reliefbase/backend/internal/project/domain"
)

// mockLister implements ProjectLister for tests.
type mockLister struct {
	byRole map[projectdomain.MemberRole][]int64
	err    error
}

func (m *mockLister) ProjectIDsForMembership(_ context.Context, _ int64, role projectdomain.MemberRole) ([]int64, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byRole[role], nil
}

func TestRecordScope_Admin(t *testing.T) {
	e := NewEvaluator(&mockLister{})
	scope, err := e.RecordScope(context.Background(), identity.Actor{Role: membershipdomain.RoleAdmin})
	if err != nil {
		t.Fatalf("RecordScope: %v", err)
	}
	if !scope.All || scope.OwnRecordsOnly {
		t.Errorf("admin scope = %+v, want All without OwnRecordsOnly", scope)
	}
}

func TestRecordScope_Collaborator(t *testing.T) {
	e := NewEvaluator(&mockLister{byRole: map[projectdomain.MemberRole][]int64{
		projectdomain.MemberRoleCollaborator: {3, 7},
	}})
	scope, err := e.RecordScope(context.Background(), identity.Actor{MembershipID: 10, Role: membershipdomain.RoleCollaborator})
	if err != nil {
		t.Fatalf("RecordScope: %v", err)
	}
	if scope.All || scope.OwnRecordsOnly {
		t.Errorf("collaborator scope = %+v, want project-bound", scope)
	}
	if !scope.AllowsProject(3) || !scope.AllowsProject(7) || scope.AllowsProject(9) {
		t.Errorf("collaborator projects = %v, want exactly 3 and 7", scope.ProjectIDs)
	}
}

func TestRecordScope_Enumerator(t *testing.T) {
	e := NewEvaluator(&mockLister{byRole: map[projectdomain.MemberRole][]int64{
		projectdomain.MemberRoleEnumerator: {5},
	}})
	scope, err := e.RecordScope(context.Background(), identity.Actor{MembershipID: 11, Role: membershipdomain.RoleEnumerator})
	if err != nil {
		t.Fatalf("RecordScope: %v", err)
	}
	if !scope.OwnRecordsOnly {
		t.Error("enumerator scope should be restricted to own records")
	}
	if !scope.AllowsProject(5) || scope.AllowsProject(6) {
		t.Errorf("enumerator projects = %v, want exactly 5", scope.ProjectIDs)
	}
}

func TestRecordScope_UnassignedAllowsNothing(t *testing.T) {
	e := NewEvaluator(&mockLister{})
	scope, err := e.RecordScope(context.Background(), identity.Actor{Role: membershipdomain.RoleCollaborator})
	if err != nil {
		t.Fatalf("RecordScope: %v", err)
	}
	if scope.All || len(scope.ProjectIDs) != 0 || scope.AllowsProject(1) {
		t.Errorf("unassigned scope = %+v, want empty", scope)
	}
}

func TestRecordScope_UnknownRole(t *testing.T) {
	e := NewEvaluator(&mockLister{})
	if _, err := e.RecordScope(context.Background(), identity.Actor{Role: "superuser"}); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestRecordScope_ListerError(t *testing.T) {
	boom := errors.New("boom")
	e := NewEvaluator(&mockLister{err: boom})
	if _, err := e.RecordScope(context.Background(), identity.Actor{Role: membershipdomain.RoleEnumerator}); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestProjectScope_EnumeratorSeesWholeProjects(t *testing.T) {
	e := NewEvaluator(&mockLister{byRole: map[projectdomain.MemberRole][]int64{
		projectdomain.MemberRoleEnumerator: {5},
	}})
	scope, err := e.ProjectScope(context.Background(), identity.Actor{Role: membershipdomain.RoleEnumerator})
	if err != nil {
		t.Fatalf("ProjectScope: %v", err)
	}
	if scope.OwnRecordsOnly {
		t.Error("project scope must not be own-records-only")
	}
}
