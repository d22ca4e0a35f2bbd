package domain

import (
	"errors"
	"time"
)

// Status is the project lifecycle state. pending/ongoing/overdue are derived
// from the date range at read time; done, suspended, and deleted are manual
// terminal states that always win over the derived value.
type Status string

const (
	StatusPending   Status = "pending"
	StatusOngoing   Status = "ongoing"
	StatusOverdue   Status = "overdue"
	StatusDone      Status = "done"
	StatusSuspended Status = "suspended"
	// StatusDeleted marks a soft-deleted project; stored as the literal
	// string "false" for compatibility with the deployed data.
	StatusDeleted Status = "false"
)

// Manual reports whether s is a terminal state an admin set explicitly.
func (s Status) Manual() bool {
	return s == StatusDone || s == StatusSuspended || s == StatusDeleted
}

// Project is a time-bounded aid operation owned by one organization. It
// carries a member roster and an assistance roster.
type Project struct {
	ID          int64
	UID         string
	OrgID       int64
	Name        string
	StartDate   time.Time
	EndDate     time.Time
	TargetCount int32
	// ManualStatus is empty unless an admin set a terminal status.
	ManualStatus Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StatusAt returns the effective status at the given time: the manual
// terminal status when set, otherwise derived from the date range.
func (p *Project) StatusAt(now time.Time) Status {
	if p.ManualStatus.Manual() {
		return p.ManualStatus
	}
	day := now.Truncate(24 * time.Hour)
	switch {
	case day.Before(p.StartDate):
		return StatusPending
	case day.After(p.EndDate):
		return StatusOverdue
	default:
		return StatusOngoing
	}
}

// Validate validates the project for persistence.
func (p *Project) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.OrgID == 0 {
		return errors.New("org id is required")
	}
	if p.EndDate.Before(p.StartDate) {
		return errors.New("end date must not be before start date")
	}
	if p.ManualStatus != "" && !p.ManualStatus.Manual() {
		return errors.New("manual status must be done, suspended, or false")
	}
	return nil
}

// MemberRole is the role a membership plays inside one project.
type MemberRole string

const (
	MemberRoleCollaborator MemberRole = "collaborator"
	MemberRoleEnumerator   MemberRole = "enumerator"
)

// Valid reports whether r is a known project member role.
func (r MemberRole) Valid() bool {
	return r == MemberRoleCollaborator || r == MemberRoleEnumerator
}

// Member is one roster entry: a membership assigned to the project with a
// role-in-project.
type Member struct {
	MembershipID int64
	Role         MemberRole
}

// AssistanceRef is one assistance roster entry.
type AssistanceRef struct {
	AssistanceID int64
}
