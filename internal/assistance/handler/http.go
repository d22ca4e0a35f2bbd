// Package handler exposes the assistance catalogue over HTTP.
package handler

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"reliefbase/backend/internal/assistance/domain"
	"reliefbase/backend/internal/assistance/service"
	"reliefbase/backend/internal/identity"
	"reliefbase/backend/internal/server/httpx"
)

// HTTP handles the /assistances routes.
type HTTP struct {
	svc      *service.Service
	validate *validator.Validate
}

func NewHTTP(svc *service.Service, validate *validator.Validate) *HTTP {
	return &HTTP{svc: svc, validate: validate}
}

// Register mounts the assistance routes on r.
func (h *HTTP) Register(r fiber.Router) {
	r.Post("/assistances", h.create)
	r.Get("/assistances", h.list)
	r.Get("/assistances/:id", h.get)
	r.Put("/assistances/:id", h.update)
}

type assistanceRequest struct {
	Name string `json:"name" validate:"required"`
	Unit string `json:"unit"`
}

type assistanceResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toResponse(a *domain.Assistance) assistanceResponse {
	return assistanceResponse{
		ID:        a.ID,
		Name:      a.Name,
		Unit:      a.Unit,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (h *HTTP) create(c fiber.Ctx) error {
	actor, _ := identity.ActorFrom(c.Context())

	var req assistanceRequest
	if err := c.Bind().Body(&req); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return httpx.Fail(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	a, err := h.svc.Create(c.Context(), actor, req.Name, req.Unit)
	if err != nil {
		return h.fail(c, err)
	}
	return httpx.OK(c, fiber.StatusCreated, toResponse(a))
}

func (h *HTTP) update(c fiber.Ctx) error {
	actor, _ := identity.ActorFrom(c.Context())
	id := httpx.ParamID(c, "id")
	if id == 0 {
		return httpx.Fail(c, fiber.StatusNotFound, "not found")
	}

	var req assistanceRequest
	if err := c.Bind().Body(&req); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return httpx.Fail(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	a, err := h.svc.Update(c.Context(), actor, id, req.Name, req.Unit)
	if err != nil {
		return h.fail(c, err)
	}
	return httpx.OK(c, fiber.StatusOK, toResponse(a))
}

func (h *HTTP) get(c fiber.Ctx) error {
	actor, _ := identity.ActorFrom(c.Context())
	id := httpx.ParamID(c, "id")
	if id == 0 {
		return httpx.Fail(c, fiber.StatusNotFound, "not found")
	}

	a, err := h.svc.Get(c.Context(), actor, id)
	if err != nil {
		return h.fail(c, err)
	}
	return httpx.OK(c, fiber.StatusOK, toResponse(a))
}

func (h *HTTP) list(c fiber.Ctx) error {
	actor, _ := identity.ActorFrom(c.Context())

	items, err := h.svc.List(c.Context(), actor)
	if err != nil {
		return h.fail(c, err)
	}
	resp := make([]assistanceResponse, 0, len(items))
	for _, a := range items {
		resp = append(resp, toResponse(a))
	}
	return httpx.OK(c, fiber.StatusOK, resp)
}

func (h *HTTP) fail(c fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrValidation) {
		return httpx.Fail(c, fiber.StatusUnprocessableEntity, err.Error())
	}
	return httpx.MapError(c, err)
}
