package domain

import (
	"errors"
	"time"
)

// Assistance is a catalogue entry for a type of aid an organization
// distributes (e.g. food parcel, hygiene kit).
type Assistance struct {
	ID        int64
	OrgID     int64
	Name      string
	Unit      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the assistance for persistence.
func (a *Assistance) Validate() error {
	if a.Name == "" {
		return errors.New("name is required")
	}
	if a.OrgID == 0 {
		return errors.New("org id is required")
	}
	return nil
}
