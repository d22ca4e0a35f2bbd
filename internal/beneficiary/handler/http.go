// Package handler exposes beneficiary registration and review over HTTP.
package handler

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"reliefbase/backend/internal/beneficiary/domain"
	"reliefbase/backend/internal/beneficiary/service"
	"reliefbase/backend/internal/identity"
	"reliefbase/backend/internal/review"
	"reliefbase/backend/internal/server/httpx"
)

// HTTP handles the /beneficiaries routes.
type HTTP struct {
	svc      *service.Service
	validate *validator.Validate
}

func NewHTTP(svc *service.Service, validate *validator.Validate) *HTTP {
	return &HTTP{svc: svc, validate: validate}
}

// Register mounts the beneficiary routes on r.
func (h *HTTP) Register(r fiber.Router) {
	r.Post("/beneficiaries", h.create)
	r.Get("/beneficiaries", h.list)
	r.Get("/beneficiaries/:id", h.get)
	r.Post("/beneficiaries/:id/review", h.reviewAction)
	r.Delete("/beneficiaries/:id", h.softDelete)
}

type memberRequest struct {
	Name         string `json:"name" validate:"required"`
	Relationship string `json:"relationship"`
	Gender       string `json:"gender"`
	BirthYear    *int32 `json:"birth_year"`
}

type createRequest struct {
	ProjectID  int64           `json:"project_id" validate:"required,gt=0"`
	FamilyCode string          `json:"family_code" validate:"required"`
	HeadName   string          `json:"head_name" validate:"required"`
	Phone      string          `json:"phone"`
	Address    string          `json:"address"`
	Members    []memberRequest `json:"members" validate:"dive"`
}

type memberResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Relationship string `json:"relationship,omitempty"`
	Gender       string `json:"gender,omitempty"`
	BirthYear    *int32 `json:"birth_year,omitempty"`
}

type beneficiaryResponse struct {
	ID           int64            `json:"id"`
	ProjectID    int64            `json:"project_id"`
	FamilyCode   string           `json:"family_code"`
	HeadName     string           `json:"head_name"`
	Phone        string           `json:"phone,omitempty"`
	Address      string           `json:"address,omitempty"`
	CreatedBy    int64            `json:"created_by_membership_id"`
	ReviewStatus string           `json:"review_status"`
	ReviewedBy   *int64           `json:"reviewed_by_membership_id,omitempty"`
	ReviewedAt   *time.Time       `json:"reviewed_at,omitempty"`
	ReviewNote   *string          `json:"review_note,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Members      []memberResponse `json:"members,omitempty"`
}

func toResponse(b *domain.Beneficiary) beneficiaryResponse {
	resp := beneficiaryResponse{
		ID:           b.ID,
		ProjectID:    b.ProjectID,
		FamilyCode:   b.FamilyCode,
		HeadName:     b.HeadName,
		Phone:        b.Phone,
		Address:      b.Address,
		CreatedBy:    b.CreatedByMembershipID,
		ReviewStatus: string(b.ReviewStatus),
		ReviewedBy:   b.ReviewedByMembershipID,
		ReviewedAt:   b.ReviewedAt,
		ReviewNote:   b.ReviewNote,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
	for _, m := range b.Members {
		resp.Members = append(resp.Members, memberResponse{
			ID: m.ID, Name: m.Name, Relationship: m.Relationship,
			Gender: m.Gender, BirthYear: m.BirthYear,
		})
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

	in := service.CreateInput{
		ProjectID:  req.ProjectID,
		FamilyCode: req.FamilyCode,
		HeadName:   req.HeadName,
		Phone:      req.Phone,
		Address:    req.Address,
		Platform:   c.Get("X-Client-Platform"),
	}
	for _, m := range req.Members {
		in.Members = append(in.Members, domain.Member{
			Name: m.Name, Relationship: m.Relationship,
			Gender: m.Gender, BirthYear: m.BirthYear,
		})
	}

	b, err := h.svc.Create(c.Context(), actor, in)
	if err != nil {
		return h.fail(c, err)
	}
	return httpx.OK(c, fiber.StatusCreated, toResponse(b))
}

type reviewRequest struct {
	Action string `json:"action" validate:"required"`
	Note   string `json:"note"`
}

func (h *HTTP) reviewAction(c fiber.Ctx) error {
	actor, _ := identity.ActorFrom(c.Context())
	id := httpx.ParamID(c, "id")
	if id == 0 {
		return httpx.Fail(c, fiber.StatusNotFound, "not found")
	}

	var req reviewRequest
	if err := c.Bind().Body(&req); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	b, err := h.svc.Review(c.Context(), actor, id, review.Action(req.Action), req.Note)
	if err != nil {
		return h.fail(c, err)
	}
	return httpx.OK(c, fiber.StatusOK, toResponse(b))
}

type deleteRequest struct {
	Status string `json:"status"`
}

func (h *HTTP) softDelete(c fiber.Ctx) error {
	actor, _ := identity.ActorFrom(c.Context())
	id := httpx.ParamID(c, "id")
	if id == 0 {
		return httpx.Fail(c, fiber.StatusNotFound, "not found")
	}

	var req deleteRequest
	if err := c.Bind().Body(&req); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.svc.SoftDelete(c.Context(), actor, id, review.Status(req.Status)); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *HTTP) get(c fiber.Ctx) error {
	actor, _ := identity.ActorFrom(c.Context())
	id := httpx.ParamID(c, "id")
	if id == 0 {
		return httpx.Fail(c, fiber.StatusNotFound, "not found")
	}

	b, err := h.svc.Get(c.Context(), actor, id)
	if err != nil {
		return h.fail(c, err)
	}
	return httpx.OK(c, fiber.StatusOK, toResponse(b))
}

func (h *HTTP) list(c fiber.Ctx) error {
	actor, _ := identity.ActorFrom(c.Context())

	in := service.ListInput{
		ProjectID: httpx.QueryID(c, "project_id"),
		Status:    review.Status(c.Query("status")),
		Page:      httpx.QueryInt32(c, "page", 1),
		PerPage:   httpx.QueryInt32(c, "per_page", 0),
	}
	items, page, err := h.svc.List(c.Context(), actor, in)
	if err != nil {
		return h.fail(c, err)
	}
	resp := make([]beneficiaryResponse, 0, len(items))
	for _, b := range items {
		resp = append(resp, toResponse(b))
	}
	return httpx.OKPage(c, resp, page)
}

func (h *HTTP) fail(c fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrValidation) {
		return httpx.Fail(c, fiber.StatusUnprocessableEntity, err.Error())
	}
	return httpx.MapError(c, err)
}
