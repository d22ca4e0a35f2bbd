package domain

import (
	"errors"
	"time"

	"reliefbase/backend/internal/review"
)

// Beneficiary is one registered aid-recipient household, submitted by an
// enumerator and validated by a collaborator.
type Beneficiary struct {
	ID                     int64
	ProjectID              int64
	FamilyCode             string
	HeadName               string
	Phone                  string
	Address                string
	CreatedByMembershipID  int64
	ReviewStatus           review.Status
	ReviewedByMembershipID *int64
	ReviewedAt             *time.Time
	ReviewNote             *string
	CreatedAt              time.Time
	UpdatedAt              time.Time

	Members []Member
}

// Member is one household member row owned by a beneficiary.
type Member struct {
	ID            int64
	BeneficiaryID int64
	Name          string
	Relationship  string
	Gender        string
	BirthYear     *int32
}

// Validate validates the beneficiary for persistence.
func (b *Beneficiary) Validate() error {
	if b.ProjectID == 0 {
		return errors.New("project id is required")
	}
	if b.FamilyCode == "" {
		return errors.New("family code is required")
	}
	if b.HeadName == "" {
		return errors.New("head name is required")
	}
	for _, m := range b.Members {
		if m.Name == "" {
			return errors.New("household member name is required")
		}
	}
	return nil
}
