// Package handler exposes the org audit trail over HTTP. Admin only.
package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"reliefbase/backend/internal/audit"
	"reliefbase/backend/internal/audit/domain"
	"reliefbase/backend/internal/identity"
	"reliefbase/backend/internal/server/httpx"
)

// HTTP handles the /audit-logs routes.
type HTTP struct {
	query *audit.Query
}

func NewHTTP(query *audit.Query) *HTTP {
	return &HTTP{query: query}
}

// Register mounts the audit routes on r.
func (h *HTTP) Register(r fiber.Router) {
	r.Get("/audit-logs", h.list)
}

type logResponse struct {
	ID                int64          `json:"id"`
	ActorMembershipID int64          `json:"actor_membership_id"`
	ActorRole         string         `json:"actor_role"`
	Action            string         `json:"action"`
	EntityType        string         `json:"entity_type"`
	EntityID          *int64         `json:"entity_id,omitempty"`
	BatchUID          *string        `json:"batch_uid,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	IPAddress         string         `json:"ip_address"`
	Platform          string         `json:"platform"`
	CreatedAt         time.Time      `json:"created_at"`
}

func toResponse(a *domain.AuditLog) logResponse {
	return logResponse{
		ID:                a.ID,
		ActorMembershipID: a.ActorMembershipID,
		ActorRole:         a.ActorRole,
		Action:            a.Action,
		EntityType:        a.EntityType,
		EntityID:          a.EntityID,
		BatchUID:          a.BatchUID,
		Metadata:          a.Metadata,
		IPAddress:         a.IPAddress,
		Platform:          a.Platform,
		CreatedAt:         a.CreatedAt,
	}
}

func (h *HTTP) list(c fiber.Ctx) error {
	actor, _ := identity.ActorFrom(c.Context())

	logs, page, err := h.query.List(c.Context(), actor,
		httpx.QueryInt32(c, "page", 1), httpx.QueryInt32(c, "per_page", 0))
	if err != nil {
		return httpx.MapError(c, err)
	}
	resp := make([]logResponse, 0, len(logs))
	for _, a := range logs {
		resp = append(resp, toResponse(a))
	}
	return httpx.OKPage(c, resp, page)
}
