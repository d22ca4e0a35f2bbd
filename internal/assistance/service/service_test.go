package service

import (
	"context"
	"errors"
	"testing"

	"reliefbase/backend/internal/assistance/domain"
	"reliefbase/backend/internal/identity"
	membershipdomain "reliefbase/backend/internal/membership/domain"
	"reliefbase/backend/internal/review"
)

type mockRepo struct {
	byID   map[int64]*domain.Assistance
	nextID int64
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*domain.Assistance, error) {
	a, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) ListByOrg(_ context.Context, orgID int64) ([]*domain.Assistance, error) {
	var out []*domain.Assistance
	for _, a := range m.byID {
		if a.OrgID == orgID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockRepo) Create(_ context.Context, a *domain.Assistance) (int64, error) {
	m.nextID++
	cp := *a
	cp.ID = m.nextID
	m.byID[cp.ID] = &cp
	return cp.ID, nil
}

func (m *mockRepo) Update(_ context.Context, a *domain.Assistance) error {
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

var (
	admin      = identity.Actor{UserID: 1, OrgID: 1, MembershipID: 100, Role: membershipdomain.RoleAdmin}
	enumerator = identity.Actor{UserID: 3, OrgID: 1, MembershipID: 300, Role: membershipdomain.RoleEnumerator}
)

func fixture() (*Service, *mockRepo) {
	repo := &mockRepo{
		byID: map[int64]*domain.Assistance{
			1: {ID: 1, OrgID: 1, Name: "Food parcel", Unit: "parcel"},
			2: {ID: 2, OrgID: 2, Name: "Blanket", Unit: "piece"},
		},
		nextID: 2,
	}
	return NewService(repo), repo
}

func TestCreate(t *testing.T) {
	svc, _ := fixture()

	a, err := svc.Create(context.Background(), admin, "Hygiene kit", "kit")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.ID == 0 || a.OrgID != 1 {
		t.Errorf("assistance = %+v", a)
	}

	if _, err := svc.Create(context.Background(), enumerator, "Tent", "piece"); !errors.Is(err, review.ErrRoleNotAllowed) {
		t.Errorf("enumerator err = %v, want ErrRoleNotAllowed", err)
	}
	if _, err := svc.Create(context.Background(), admin, "", "kit"); !errors.Is(err, ErrValidation) {
		t.Errorf("empty name err = %v, want ErrValidation", err)
	}
}

func TestUpdate(t *testing.T) {
	svc, repo := fixture()

	a, err := svc.Update(context.Background(), admin, 1, "Food parcel XL", "parcel")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if a.Name != "Food parcel XL" || repo.byID[1].Name != "Food parcel XL" {
		t.Errorf("rename not applied: %+v", repo.byID[1])
	}

	// Other org's entry reads as missing.
	if _, err := svc.Update(context.Background(), admin, 2, "x", "y"); !errors.Is(err, review.ErrNotFound) {
		t.Errorf("cross-org err = %v, want ErrNotFound", err)
	}
}

func TestGetAndList(t *testing.T) {
	svc, _ := fixture()

	if _, err := svc.Get(context.Background(), enumerator, 1); err != nil {
		t.Errorf("every member may read the catalogue: %v", err)
	}
	if _, err := svc.Get(context.Background(), admin, 2); !errors.Is(err, review.ErrNotFound) {
		t.Errorf("cross-org get err = %v, want ErrNotFound", err)
	}

	items, err := svc.List(context.Background(), enumerator)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].OrgID != 1 {
		t.Errorf("items = %+v, want own org only", items)
	}
}
