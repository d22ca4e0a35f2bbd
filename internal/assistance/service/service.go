// Package service implements the assistance catalogue operations.
package service

import (
	"context"
	"errors"
	"fmt"

	"reliefbase/backend/internal/assistance/domain"
	"reliefbase/backend/internal/assistance/repository"
	"reliefbase/backend/internal/identity"
	membershipdomain "reliefbase/backend/internal/membership/domain"
	"reliefbase/backend/internal/review"
)

var ErrValidation = errors.New("assistance: validation failed")

// Service manages the org-wide assistance catalogue. Every member may read
// it; only admins change it.
type Service struct {
	repo repository.Repository
}

func NewService(repo repository.Repository) *Service {
	return &Service{repo: repo}
}

// Create adds a catalogue entry to the actor's org. Admin only.
func (s *Service) Create(ctx context.Context, actor identity.Actor, name, unit string) (*domain.Assistance, error) {
	if actor.Role != membershipdomain.RoleAdmin {
		return nil, review.ErrRoleNotAllowed
	}
	a := &domain.Assistance{OrgID: actor.OrgID, Name: name, Unit: unit}
	if err := a.Validate(); err != nil {
		return nil, errors.Join(ErrValidation, err)
	}
	id, err := s.repo.Create(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("create assistance: %w", err)
	}
	a.ID = id
	return a, nil
}

// Update renames a catalogue entry or changes its unit. Admin only.
func (s *Service) Update(ctx context.Context, actor identity.Actor, id int64, name, unit string) (*domain.Assistance, error) {
	if actor.Role != membershipdomain.RoleAdmin {
		return nil, review.ErrRoleNotAllowed
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get assistance: %w", err)
	}
	if a == nil || a.OrgID != actor.OrgID {
		return nil, review.ErrNotFound
	}
	a.Name = name
	a.Unit = unit
	if err := a.Validate(); err != nil {
		return nil, errors.Join(ErrValidation, err)
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update assistance: %w", err)
	}
	return a, nil
}

// Get returns one catalogue entry of the actor's org.
func (s *Service) Get(ctx context.Context, actor identity.Actor, id int64) (*domain.Assistance, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get assistance: %w", err)
	}
	if a == nil || a.OrgID != actor.OrgID {
		return nil, review.ErrNotFound
	}
	return a, nil
}

// List returns the full catalogue of the actor's org.
func (s *Service) List(ctx context.Context, actor identity.Actor) ([]*domain.Assistance, error) {
	items, err := s.repo.ListByOrg(ctx, actor.OrgID)
	if err != nil {
		return nil, fmt.Errorf("list assistances: %w", err)
	}
	return items, nil
}
