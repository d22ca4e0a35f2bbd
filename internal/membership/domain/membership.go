package domain

import (
	"time"
)

// Membership links a user to an organization with exactly one role.
// Roles are immutable for the life of a membership; a role change is
// modelled as deactivating the old membership and creating a new one.
type Membership struct {
	ID        int64
	UserID    int64
	OrgID     int64
	Role      Role
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Role is the closed set of roles a membership can hold.
type Role string

const (
	// RoleAdmin manages the organization: projects, rosters, reference data.
	RoleAdmin Role = "admin"
	// RoleCollaborator validates field submissions on projects it is assigned to.
	RoleCollaborator Role = "collaborator"
	// RoleEnumerator submits field data on projects it is assigned to.
	RoleEnumerator Role = "enumerator"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCollaborator, RoleEnumerator:
		return true
	}
	return false
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Blocker describes one reason a membership cannot be deactivated:
// non-deleted records still reference it as creator or reviewer.
type Blocker struct {
	Entity string
	Count  int64
	Reason string
}

// DeactivationCheck is the outcome of the member-deletion guard.
type DeactivationCheck struct {
	CanDelete bool
	Blockers  []Blocker
}
