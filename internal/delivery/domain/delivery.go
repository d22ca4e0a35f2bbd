package domain

import (
	"errors"
	"time"

	"reliefbase/backend/internal/review"
)

// Delivery records aid handed to a beneficiary household on a date, submitted
// by an enumerator and validated by a collaborator.
type Delivery struct {
	ID                     int64
	ProjectID              int64
	BeneficiaryID          int64
	DeliveryDate           time.Time
	CreatedByMembershipID  int64
	ReviewStatus           review.Status
	ReviewedByMembershipID *int64
	ReviewedAt             *time.Time
	ReviewNote             *string
	CreatedAt              time.Time
	UpdatedAt              time.Time

	Items []Item
}

// Item is one distributed assistance line of a delivery.
type Item struct {
	ID           int64
	DeliveryID   int64
	AssistanceID int64
	Quantity     float64
}

// Validate validates the delivery for persistence.
func (d *Delivery) Validate() error {
	if d.ProjectID == 0 {
		return errors.New("project id is required")
	}
	if d.BeneficiaryID == 0 {
		return errors.New("beneficiary id is required")
	}
	if d.DeliveryDate.IsZero() {
		return errors.New("delivery date is required")
	}
	if len(d.Items) == 0 {
		return errors.New("at least one delivery item is required")
	}
	for _, it := range d.Items {
		if it.AssistanceID == 0 {
			return errors.New("delivery item assistance id is required")
		}
		if it.Quantity <= 0 {
			return errors.New("delivery item quantity must be positive")
		}
	}
	return nil
}
