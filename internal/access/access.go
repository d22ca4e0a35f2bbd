// Package access maps an actor's role to the set of projects and records it
// may see or act on. The evaluator only reads the project roster; every rule
// is an exhaustive switch over the closed Role enum.
package access

import (
	"context"
	"fmt"

	"reliefbase/backend/internal/identity"
	membershipdomain "reliefbase/backend/internal/membership/domain"
	projectdomain "reliefbase/backend/internal/project/domain"
)

// Scope describes what a role may reach. A zero Scope with a nil ProjectIDs
// slice allows nothing; list operations then return empty, zero-filled pages
// rather than an error.
type Scope struct {
	// All grants every record of the actor's organization.
	All bool
	// ProjectIDs restricts to records belonging to these projects.
	ProjectIDs []int64
	// OwnRecordsOnly further restricts listings to records the actor
	// authored (enumerator self-view).
	OwnRecordsOnly bool
}

// AllowsProject reports whether the scope covers the given project.
func (s Scope) AllowsProject(projectID int64) bool {
	if s.All {
		return true
	}
	for _, id := range s.ProjectIDs {
		if id == projectID {
			return true
		}
	}
	return false
}

// ProjectLister returns the projects where a membership holds a
// role-in-project. Implemented by the project repository.
type ProjectLister interface {
	ProjectIDsForMembership(ctx context.Context, membershipID int64, role projectdomain.MemberRole) ([]int64, error)
}

// Evaluator resolves visibility scopes from the project roster.
type Evaluator struct {
	projects ProjectLister
}

// NewEvaluator returns an Evaluator backed by the given roster source.
func NewEvaluator(projects ProjectLister) *Evaluator {
	return &Evaluator{projects: projects}
}

// RecordScope returns the scope for beneficiary and delivery records.
// Admins see everything in their organization; collaborators see records of
// projects they collaborate on; enumerators see only records they authored
// within projects they enumerate for.
func (e *Evaluator) RecordScope(ctx context.Context, actor identity.Actor) (Scope, error) {
	switch actor.Role {
	case membershipdomain.RoleAdmin:
		return Scope{All: true}, nil
	case membershipdomain.RoleCollaborator:
		ids, err := e.projects.ProjectIDsForMembership(ctx, actor.MembershipID, projectdomain.MemberRoleCollaborator)
		if err != nil {
			return Scope{}, err
		}
		return Scope{ProjectIDs: ids}, nil
	case membershipdomain.RoleEnumerator:
		ids, err := e.projects.ProjectIDsForMembership(ctx, actor.MembershipID, projectdomain.MemberRoleEnumerator)
		if err != nil {
			return Scope{}, err
		}
		return Scope{ProjectIDs: ids, OwnRecordsOnly: true}, nil
	}
	return Scope{}, fmt.Errorf("unknown role %q", actor.Role)
}

// ProjectScope returns the scope for project visibility. Same roster rules as
// RecordScope, but enumerators see whole projects they are assigned to, not
// just their own records.
func (e *Evaluator) ProjectScope(ctx context.Context, actor identity.Actor) (Scope, error) {
	s, err := e.RecordScope(ctx, actor)
	if err != nil {
		return Scope{}, err
	}
	s.OwnRecordsOnly = false
	return s, nil
}
