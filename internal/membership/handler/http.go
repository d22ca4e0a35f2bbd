// Package handler exposes membership management over HTTP. Minimal and
// admin-only: enough to manage rosters and exercise the deactivation guard.
package handler

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"reliefbase/backend/internal/identity"
	"reliefbase/backend/internal/membership/domain"
	"reliefbase/backend/internal/membership/service"
	"reliefbase/backend/internal/server/httpx"
)

// HTTP handles the /memberships routes.
type HTTP struct {
	svc      *service.Service
	validate *validator.Validate
}

func NewHTTP(svc *service.Service, validate *validator.Validate) *HTTP {
	return &HTTP{svc: svc, validate: validate}
}

// Register mounts the membership routes on r.
func (h *HTTP) Register(r fiber.Router) {
	r.Post("/memberships", h.create)
	r.Get("/memberships", h.list)
	r.Get("/memberships/:id/deactivation-check", h.check)
	r.Post("/memberships/:id/deactivate", h.deactivate)
}

type createRequest struct {
	UserID int64  `json:"user_id" validate:"required,gt=0"`
	Role   string `json:"role" validate:"required,oneof=admin collaborator enumerator"`
}

type membershipResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type blockerResponse struct {
	Entity string `json:"entity"`
	Count  int64  `json:"count"`
	Reason string `json:"reason"`
}

type checkResponse struct {
	CanDelete bool              `json:"can_delete"`
	Blockers  []blockerResponse `json:"blockers"`
}

func toResponse(m *domain.Membership) membershipResponse {
	return membershipResponse{
		ID:        m.ID,
		UserID:    m.UserID,
		Role:      string(m.Role),
		Status:    string(m.Status),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toCheckResponse(check *domain.DeactivationCheck) checkResponse {
	resp := checkResponse{CanDelete: check.CanDelete, Blockers: []blockerResponse{}}
	for _, b := range check.Blockers {
		resp.Blockers = append(resp.Blockers, blockerResponse{Entity: b.Entity, Count: b.Count, Reason: b.Reason})
	}
	return resp
}

func (h *HTTP) create(c fiber.Ctx) error {
	actor, _ := identity.ActorFrom(c.Context())

	var req createRequest
	if err := c.Bind().Body(&req); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return httpx.Fail(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	m, err := h.svc.Create(c.Context(), actor, req.UserID, domain.Role(req.Role))
	if err != nil {
		return h.fail(c, err)
	}
	return httpx.OK(c, fiber.StatusCreated, toResponse(m))
}

func (h *HTTP) list(c fiber.Ctx) error {
	actor, _ := identity.ActorFrom(c.Context())

	members, err := h.svc.List(c.Context(), actor)
	if err != nil {
		return h.fail(c, err)
	}
	resp := make([]membershipResponse, 0, len(members))
	for _, m := range members {
		resp = append(resp, toResponse(m))
	}
	return httpx.OK(c, fiber.StatusOK, resp)
}

func (h *HTTP) check(c fiber.Ctx) error {
	actor, _ := identity.ActorFrom(c.Context())
	id := httpx.ParamID(c, "id")
	if id == 0 {
		return httpx.Fail(c, fiber.StatusNotFound, "not found")
	}

	check, err := h.svc.CheckDeactivate(c.Context(), actor, id)
	if err != nil {
		return h.fail(c, err)
	}
	return httpx.OK(c, fiber.StatusOK, toCheckResponse(check))
}

func (h *HTTP) deactivate(c fiber.Ctx) error {
	actor, _ := identity.ActorFrom(c.Context())
	id := httpx.ParamID(c, "id")
	if id == 0 {
		return httpx.Fail(c, fiber.StatusNotFound, "not found")
	}

	check, err := h.svc.Deactivate(c.Context(), actor, id)
	if errors.Is(err, service.ErrDeactivationBlocked) {
		// The guard payload tells the caller exactly what still blocks.
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"status":  "error",
			"message": "membership has linked records and cannot be deactivated",
			"data":    toCheckResponse(check),
		})
	}
	if err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *HTTP) fail(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return httpx.Fail(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrAlreadyInactive):
		return httpx.Fail(c, fiber.StatusConflict, err.Error())
	default:
		return httpx.MapError(c, err)
	}
}
