package domain

import (
	"errors"
	"time"
)

// Org represents an organization/tenant. It owns projects, memberships, and
// the assistance catalogue.
type Org struct {
	ID   int64
	UID  string
	Name string
	// CreatedByMembershipID records the founding admin membership; the
	// member-deletion guard refuses to deactivate it.
	CreatedByMembershipID int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Validate validates the organization for persistence. Returns an error
// describing the first validation failure.
func (o *Org) Validate() error {
	if o.Name == "" {
		return errors.New("name is required")
	}
	if o.UID == "" {
		return errors.New("uid is required")
	}
	return nil
}
