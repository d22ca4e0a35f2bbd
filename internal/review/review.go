// Package review holds the shared review lifecycle types and errors for
// field-collected records (beneficiaries and deliveries).
package review

import (
	"errors"
	"strings"

	membershipdomain "reliefbase/backend/internal/membership/domain"
)

// Status is the review lifecycle flag on a field record.
//
// A record is created pending and transitions exactly once to approved or
// rejected. StatusDeleted is the terminal soft-delete marker, reachable only
// from rejected; the stored value is the literal string "false" for
// compatibility with the deployed data.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusDeleted  Status = "false"
)

// Valid reports whether s is a known review status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusDeleted:
		return true
	}
	return false
}

// Listable reports whether s may be used as a listing filter. The deleted
// marker is excluded: soft-deleted records stay hidden from normal queries.
func (s Status) Listable() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Action is a collaborator's review decision.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// StatusFor returns the terminal status an action resolves to.
func (a Action) StatusFor() Status {
	if a == ActionApprove {
		return StatusApproved
	}
	return StatusRejected
}

// Valid reports whether a is a known review action.
func (a Action) Valid() bool {
	return a == ActionApprove || a == ActionReject
}

// Sentinel errors for review and related guarded operations; handlers map
// them to HTTP statuses.
var (
	// ErrRoleNotAllowed: the actor's role cannot perform the operation at all.
	ErrRoleNotAllowed = errors.New("role not allowed for this operation")
	// ErrAccessDenied: the role is right but the actor is outside the
	// resource's scope (e.g. not a collaborator on the record's project).
	ErrAccessDenied = errors.New("access denied")
	// ErrNotFound: the record does not exist within the actor's organization.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyReviewed: the record left the pending state before this call.
	ErrAlreadyReviewed = errors.New("record already reviewed")
	// ErrNoteRequired: a rejection was submitted without a review note.
	ErrNoteRequired = errors.New("review note required for rejection")
	// ErrInvalidStatus: the caller-declared current status does not match the
	// transition's precondition.
	ErrInvalidStatus = errors.New("invalid status for this transition")
	// ErrInvalidAction: the review action is neither approve nor reject.
	ErrInvalidAction = errors.New("invalid review action")
)

// CheckRequest validates a review request before any record is read: only
// collaborators review, the action must be known, and a rejection must carry
// a non-empty note. Approvals never require a note.
func CheckRequest(role membershipdomain.Role, action Action, note string) error {
	if role != membershipdomain.RoleCollaborator {
		return ErrRoleNotAllowed
	}
	if !action.Valid() {
		return ErrInvalidAction
	}
	if action == ActionReject && strings.TrimSpace(note) == "" {
		return ErrNoteRequired
	}
	return nil
}
