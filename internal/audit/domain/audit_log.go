package domain

import "time"

// AuditLog is one append-only record of who did what to which entity.
// Entries are never updated or deleted by the core.
type AuditLog struct {
	ID                int64
	OrgID             int64
	ActorMembershipID int64
	ActorRole         string
	Action            string
	EntityType        string
	// EntityID is optional; for review actions the deployed convention
	// records the owning project id here, not the record's own id.
	EntityID  *int64
	BatchUID  *string
	Metadata  map[string]any
	IPAddress string
	Platform  string
	CreatedAt time.Time
}
