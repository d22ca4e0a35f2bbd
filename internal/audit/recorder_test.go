package audit

import (
	"context"
	"errors"
	"testing"

	"reliefbase/backend/internal/audit/domain"
	"reliefbase/backend/internal/db"
	"reliefbase/backend/internal/identity"
	membershipdomain "reliefbase/backend/internal/membership/domain"
	"reliefbase/backend/internal/pagination"
	"reliefbase/backend/internal/review"
)

type mockRepo struct {
	appended  []*domain.AuditLog
	appendErr error

	logs  []*domain.AuditLog
	total int64
}

func (m *mockRepo) Append(_ context.Context, _ db.Querier, a *domain.AuditLog) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.appended = append(m.appended, a)
	return nil
}

func (m *mockRepo) ListByOrg(_ context.Context, _ int64, _, _ int32) ([]*domain.AuditLog, error) {
	return m.logs, nil
}

func (m *mockRepo) CountByOrg(_ context.Context, _ int64) (int64, error) {
	return m.total, nil
}

var actor = identity.Actor{UserID: 1, OrgID: 1, MembershipID: 100, Role: membershipdomain.RoleAdmin}

func TestRecord(t *testing.T) {
	repo := &mockRepo{}
	rec := NewRecorder(repo)
	id := int64(7)

	ctx := identity.WithClientIP(context.Background(), "203.0.113.9")
	rec.Record(ctx, nil, Entry{
		Actor:      actor,
		Action:     "approved",
		EntityType: "beneficiary",
		EntityID:   &id,
		Platform:   "mobile",
		Metadata:   map[string]any{"note": "ok"},
	})

	if len(repo.appended) != 1 {
		t.Fatalf("appended = %d, want 1", len(repo.appended))
	}
	got := repo.appended[0]
	if got.OrgID != 1 || got.ActorMembershipID != 100 || got.ActorRole != "admin" {
		t.Errorf("attribution = %+v", got)
	}
	if got.IPAddress != "203.0.113.9" || got.Platform != "mobile" {
		t.Errorf("ip=%q platform=%q", got.IPAddress, got.Platform)
	}
	if got.EntityID == nil || *got.EntityID != 7 {
		t.Errorf("entity id = %v", got.EntityID)
	}
}

func TestRecord_Defaults(t *testing.T) {
	repo := &mockRepo{}
	rec := NewRecorder(repo)

	// No client IP in context and no declared platform.
	rec.Record(context.Background(), nil, Entry{Actor: actor, Action: "created", EntityType: "project"})

	if len(repo.appended) != 1 {
		t.Fatalf("appended = %d, want 1", len(repo.appended))
	}
	if repo.appended[0].IPAddress != "unknown" {
		t.Errorf("ip = %q, want unknown", repo.appended[0].IPAddress)
	}
	if repo.appended[0].Platform != DefaultPlatform {
		t.Errorf("platform = %q, want %q", repo.appended[0].Platform, DefaultPlatform)
	}
}

func TestRecord_NoAttribution(t *testing.T) {
	repo := &mockRepo{}
	rec := NewRecorder(repo)

	rec.Record(context.Background(), nil, Entry{Action: "created", EntityType: "project"})
	rec.Record(context.Background(), nil, Entry{
		Actor:  identity.Actor{UserID: 1, OrgID: 1},
		Action: "created", EntityType: "project",
	})

	if len(repo.appended) != 0 {
		t.Errorf("appended = %d, want no-op without actor attribution", len(repo.appended))
	}
}

func TestRecord_SwallowsAppendError(t *testing.T) {
	repo := &mockRepo{appendErr: errors.New("disk full")}
	rec := NewRecorder(repo)

	// Must not panic or surface the failure.
	rec.Record(context.Background(), nil, Entry{Actor: actor, Action: "created", EntityType: "project"})
}

func TestQueryList(t *testing.T) {
	repo := &mockRepo{
		logs:  []*domain.AuditLog{{ID: 1, Action: "created"}, {ID: 2, Action: "approved"}},
		total: 2,
	}
	q := NewQuery(repo)

	logs, page, err := q.List(context.Background(), actor, 1, 20)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(logs) != 2 {
		t.Errorf("logs = %d, want 2", len(logs))
	}
	if want := (pagination.Page{Page: 1, PerPage: 20, Total: 2, TotalPages: 1}); page != want {
		t.Errorf("page = %+v, want %+v", page, want)
	}

	enumerator := identity.Actor{UserID: 3, OrgID: 1, MembershipID: 300, Role: membershipdomain.RoleEnumerator}
	if _, _, err := q.List(context.Background(), enumerator, 1, 20); !errors.Is(err, review.ErrRoleNotAllowed) {
		t.Errorf("enumerator err = %v, want ErrRoleNotAllowed", err)
	}
}
