// Package audit appends immutable records describing who did what to which
// entity. Writes are best-effort: a failed audit write never aborts the
// business operation it accompanies, but the write itself happens on the
// caller's transaction so a rollback also reverts the audit row.
package audit

import (
	"context"

	"reliefbase/backend/internal/audit/domain"
	auditrepo "reliefbase/backend/internal/audit/repository"
	"reliefbase/backend/internal/db"
	"reliefbase/backend/internal/identity"
	"reliefbase/backend/internal/logger"
)

// DefaultPlatform is recorded when the client did not declare one.
const DefaultPlatform = "web"

// Entry describes one audit event to record.
type Entry struct {
	Actor      identity.Actor
	Action     string
	EntityType string
	EntityID   *int64
	BatchUID   *string
	Metadata   map[string]any
	Platform   string
}

// Recorder writes audit entries. Record is best-effort and never returns an
// error to the caller.
type Recorder interface {
	Record(ctx context.Context, q db.Querier, e Entry)
}

// DBRecorder implements Recorder on the audit repository.
type DBRecorder struct {
	repo auditrepo.Repository
}

// NewRecorder returns a Recorder that persists through repo.
func NewRecorder(repo auditrepo.Repository) *DBRecorder {
	return &DBRecorder{repo: repo}
}

// Record writes one audit log entry on the given querier. It silently no-ops
// when the actor has no membership or organization (nothing to attribute),
// and logs-and-swallows persistence failures so audit logging cannot veto the
// primary transaction.
func (r *DBRecorder) Record(ctx context.Context, q db.Querier, e Entry) {
	if r.repo == nil {
		return
	}
	if e.Actor.MembershipID == 0 || e.Actor.OrgID == 0 {
		return
	}
	ip := identity.ClientIPFrom(ctx)
	if ip == "" {
		ip = "unknown"
	}
	platform := e.Platform
	if platform == "" {
		platform = DefaultPlatform
	}
	entry := &domain.AuditLog{
		OrgID:             e.Actor.OrgID,
		ActorMembershipID: e.Actor.MembershipID,
		ActorRole:         string(e.Actor.Role),
		Action:            e.Action,
		EntityType:        e.EntityType,
		EntityID:          e.EntityID,
		BatchUID:          e.BatchUID,
		Metadata:          e.Metadata,
		IPAddress:         ip,
		Platform:          platform,
	}
	if err := r.repo.Append(ctx, q, entry); err != nil {
		logger.WithComponent("audit").WithError(err).
			WithField("action", e.Action).WithField("entity_type", e.EntityType).
			Warn("failed to append audit log")
	}
}
