// Package handler exposes delivery submission and review over HTTP.
package handler

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"reliefbase/backend/internal/delivery/domain"
	"reliefbase/backend/internal/delivery/service"
	"reliefbase/backend/internal/identity"
	"reliefbase/backend/internal/review"
	"reliefbase/backend/internal/server/httpx"
)

// HTTP handles the /deliveries routes.
type HTTP struct {
	svc      *service.Service
	validate *validator.Validate
}

func NewHTTP(svc *service.Service, validate *validator.Validate) *HTTP {
	return &HTTP{svc: svc, validate: validate}
}

// Register mounts the delivery routes on r.
func (h *HTTP) Register(r fiber.Router) {
	r.Post("/deliveries", h.create)
	r.Get("/deliveries", h.list)
	r.Get("/deliveries/:id", h.get)
	r.Post("/deliveries/:id/review", h.reviewAction)
	r.Delete("/deliveries/:id", h.softDelete)
}

type itemRequest struct {
	AssistanceID int64   `json:"assistance_id" validate:"required,gt=0"`
	Quantity     float64 `json:"quantity" validate:"required,gt=0"`
}

type createRequest struct {
	ProjectID     int64         `json:"project_id" validate:"required,gt=0"`
	BeneficiaryID int64         `json:"beneficiary_id" validate:"required,gt=0"`
	DeliveryDate  string        `json:"delivery_date" validate:"required,datetime=2006-01-02"`
	Items         []itemRequest `json:"items" validate:"required,min=1,dive"`
}

type itemResponse struct {
	ID           int64   `json:"id"`
	AssistanceID int64   `json:"assistance_id"`
	Quantity     float64 `json:"quantity"`
}

type deliveryResponse struct {
	ID            int64          `json:"id"`
	ProjectID     int64          `json:"project_id"`
	BeneficiaryID int64          `json:"beneficiary_id"`
	DeliveryDate  string         `json:"delivery_date"`
	CreatedBy     int64          `json:"created_by_membership_id"`
	ReviewStatus  string         `json:"review_status"`
	ReviewedBy    *int64         `json:"reviewed_by_membership_id,omitempty"`
	ReviewedAt    *time.Time     `json:"reviewed_at,omitempty"`
	ReviewNote    *string        `json:"review_note,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Items         []itemResponse `json:"items,omitempty"`
}

func toResponse(d *domain.Delivery) deliveryResponse {
	resp := deliveryResponse{
		ID:            d.ID,
		ProjectID:     d.ProjectID,
		BeneficiaryID: d.BeneficiaryID,
		DeliveryDate:  d.DeliveryDate.Format("2006-01-02"),
		CreatedBy:     d.CreatedByMembershipID,
		ReviewStatus:  string(d.ReviewStatus),
		ReviewedBy:    d.ReviewedByMembershipID,
		ReviewedAt:    d.ReviewedAt,
		ReviewNote:    d.ReviewNote,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	for _, it := range d.Items {
		resp.Items = append(resp.Items, itemResponse{
			ID: it.ID, AssistanceID: it.AssistanceID, Quantity: it.Quantity,
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
	date, err := time.Parse("2006-01-02", req.DeliveryDate)
	if err != nil {
		return httpx.Fail(c, fiber.StatusUnprocessableEntity, "delivery_date must be YYYY-MM-DD")
	}

	in := service.CreateInput{
		ProjectID:     req.ProjectID,
		BeneficiaryID: req.BeneficiaryID,
		DeliveryDate:  date,
		Platform:      c.Get("X-Client-Platform"),
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, domain.Item{AssistanceID: it.AssistanceID, Quantity: it.Quantity})
	}

	d, err := h.svc.Create(c.Context(), actor, in)
	if err != nil {
		return h.fail(c, err)
	}
	return httpx.OK(c, fiber.StatusCreated, toResponse(d))
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

	d, err := h.svc.Review(c.Context(), actor, id, review.Action(req.Action), req.Note)
	if err != nil {
		return h.fail(c, err)
	}
	return httpx.OK(c, fiber.StatusOK, toResponse(d))
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

	d, err := h.svc.Get(c.Context(), actor, id)
	if err != nil {
		return h.fail(c, err)
	}
	return httpx.OK(c, fiber.StatusOK, toResponse(d))
}

func (h *HTTP) list(c fiber.Ctx) error {
	actor, _ := identity.ActorFrom(c.Context())

	in := service.ListInput{
		ProjectID:     httpx.QueryID(c, "project_id"),
		BeneficiaryID: httpx.QueryID(c, "beneficiary_id"),
		Status:        review.Status(c.Query("status")),
		Page:          httpx.QueryInt32(c, "page", 1),
		PerPage:       httpx.QueryInt32(c, "per_page", 0),
	}
	items, page, err := h.svc.List(c.Context(), actor, in)
	if err != nil {
		return h.fail(c, err)
	}
	resp := make([]deliveryResponse, 0, len(items))
	for _, d := range items {
		resp = append(resp, toResponse(d))
	}
	return httpx.OKPage(c, resp, page)
}

func (h *HTTP) fail(c fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrValidation) {
		return httpx.Fail(c, fiber.StatusUnprocessableEntity, err.Error())
	}
	return httpx.MapError(c, err)
}
