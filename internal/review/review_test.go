package review

import (
	"errors"
	"testing"

	membershipdomain "reliefbase/backend/internal/membership/domain"
)

func TestCheckRequest(t *testing.T) {
	tests := []struct {
		name    string
		role    membershipdomain.Role
		action  Action
		note    string
		wantErr error
	}{
		{"collaborator approve", membershipdomain.RoleCollaborator, ActionApprove, "", nil},
		{"collaborator approve with note", membershipdomain.RoleCollaborator, ActionApprove, "looks right", nil},
		{"collaborator reject with note", membershipdomain.RoleCollaborator, ActionReject, "duplicate family", nil},
		{"collaborator reject without note", membershipdomain.RoleCollaborator, ActionReject, "", ErrNoteRequired},
		{"collaborator reject whitespace note", membershipdomain.RoleCollaborator, ActionReject, "   ", ErrNoteRequired},
		{"admin cannot review", membershipdomain.RoleAdmin, ActionApprove, "", ErrRoleNotAllowed},
		{"enumerator cannot review", membershipdomain.RoleEnumerator, ActionApprove, "", ErrRoleNotAllowed},
		{"unknown action", membershipdomain.RoleCollaborator, Action("archive"), "", ErrInvalidAction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRequest(tt.role, tt.action, tt.note)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CheckRequest() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestActionStatusFor(t *testing.T) {
	if got := ActionApprove.StatusFor(); got != StatusApproved {
		t.Errorf("approve => %q, want approved", got)
	}
	if got := ActionReject.StatusFor(); got != StatusRejected {
		t.Errorf("reject => %q, want rejected", got)
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusApproved, StatusRejected, StatusDeleted} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if Status("archived").Valid() {
		t.Error("archived should not be valid")
	}
	// The soft-delete marker is stored as the literal "false".
	if StatusDeleted != "false" {
		t.Errorf("deleted marker = %q, want false", StatusDeleted)
	}
}

func TestStatusListable(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusApproved, StatusRejected} {
		if !s.Listable() {
			t.Errorf("%q should be listable", s)
		}
	}
	// The deleted marker is valid but never a listing filter.
	if StatusDeleted.Listable() {
		t.Error("deleted marker must not be listable")
	}
	if Status("archived").Listable() {
		t.Error("unknown status must not be listable")
	}
}
