// Package handler exposes project management over HTTP.
package handler

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"reliefbase/backend/internal/identity"
	"reliefbase/backend/internal/project/domain"
	"reliefbase/backend/internal/project/service"
	"reliefbase/backend/internal/server/httpx"
)

// HTTP handles the /projects routes.
type HTTP struct {
	svc      *service.Service
	validate *validator.Validate
}

func NewHTTP(svc *service.Service, validate *validator.Validate) *HTTP {
	return &HTTP{svc: svc, validate: validate}
}

// Register mounts the project routes on r.
func (h *HTTP) Register(r fiber.Router) {
	r.Post("/projects", h.create)
	r.Get("/projects", h.list)
	r.Get("/projects/:id", h.get)
	r.Put("/projects/:id", h.update)
	r.Delete("/projects/:id", h.softDelete)
	r.Get("/projects/:id/locks", h.locks)
}

type memberRequest struct {
	MembershipID int64  `json:"membership_id" validate:"required,gt=0"`
	Role         string `json:"role" validate:"required,oneof=collaborator enumerator"`
}

type createRequest struct {
	Name        string          `json:"name" validate:"required"`
	StartDate   string          `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string          `json:"end_date" validate:"required,datetime=2006-01-02"`
	TargetCount int32           `json:"target_count" validate:"gte=0"`
	Members     []memberRequest `json:"members" validate:"dive"`
	Assistances []int64         `json:"assistance_ids" validate:"dive,gt=0"`
}

type updateRequest struct {
	Name         string           `json:"name" validate:"required"`
	StartDate    string           `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string           `json:"end_date" validate:"required,datetime=2006-01-02"`
	TargetCount  int32            `json:"target_count" validate:"gte=0"`
	ManualStatus string           `json:"manual_status" validate:"omitempty,oneof=done suspended"`
	Members      *[]memberRequest `json:"members"`
	Assistances  *[]int64         `json:"assistance_ids"`
}

type memberResponse struct {
	MembershipID int64  `json:"membership_id"`
	Role         string `json:"role"`
}

type projectResponse struct {
	ID          int64            `json:"id"`
	UID         string           `json:"uid"`
	Name        string           `json:"name"`
	StartDate   string           `json:"start_date"`
	EndDate     string           `json:"end_date"`
	TargetCount int32            `json:"target_count"`
	Status      string           `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Members     []memberResponse `json:"members,omitempty"`
	Assistances []int64          `json:"assistance_ids,omitempty"`
}

type locksResponse struct {
	MemberIDs     []int64 `json:"locked_membership_ids"`
	AssistanceIDs []int64 `json:"locked_assistance_ids"`
}

func toResponse(v *service.View) projectResponse {
	p := v.Project
	resp := projectResponse{
		ID:          p.ID,
		UID:         p.UID,
		Name:        p.Name,
		StartDate:   p.StartDate.Format("2006-01-02"),
		EndDate:     p.EndDate.Format("2006-01-02"),
		TargetCount: p.TargetCount,
		Status:      string(v.Status),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	for _, m := range v.Members {
		resp.Members = append(resp.Members, memberResponse{MembershipID: m.MembershipID, Role: string(m.Role)})
	}
	for _, a := range v.Assistances {
		resp.Assistances = append(resp.Assistances, a.AssistanceID)
	}
	return resp
}

func toMembers(reqs []memberRequest) []domain.Member {
	members := make([]domain.Member, 0, len(reqs))
	for _, m := range reqs {
		members = append(members, domain.Member{MembershipID: m.MembershipID, Role: domain.MemberRole(m.Role)})
	}
	return members
}

func toAssistances(ids []int64) []domain.AssistanceRef {
	refs := make([]domain.AssistanceRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, domain.AssistanceRef{AssistanceID: id})
	}
	return refs
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
	start, _ := time.Parse("2006-01-02", req.StartDate)
	end, _ := time.Parse("2006-01-02", req.EndDate)

	v, err := h.svc.Create(c.Context(), actor, service.CreateInput{
		Name:        req.Name,
		StartDate:   start,
		EndDate:     end,
		TargetCount: req.TargetCount,
		Members:     toMembers(req.Members),
		Assistances: toAssistances(req.Assistances),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return httpx.OK(c, fiber.StatusCreated, toResponse(v))
}

func (h *HTTP) update(c fiber.Ctx) error {
	actor, _ := identity.ActorFrom(c.Context())
	id := httpx.ParamID(c, "id")
	if id == 0 {
		return httpx.Fail(c, fiber.StatusNotFound, "not found")
	}

	var req updateRequest
	if err := c.Bind().Body(&req); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return httpx.Fail(c, fiber.StatusUnprocessableEntity, err.Error())
	}
	start, _ := time.Parse("2006-01-02", req.StartDate)
	end, _ := time.Parse("2006-01-02", req.EndDate)

	in := service.UpdateInput{
		Name:         req.Name,
		StartDate:    start,
		EndDate:      end,
		TargetCount:  req.TargetCount,
		ManualStatus: domain.Status(req.ManualStatus),
	}
	if req.Members != nil {
		members := toMembers(*req.Members)
		in.SelectedMembers = &members
	}
	if req.Assistances != nil {
		refs := toAssistances(*req.Assistances)
		in.SelectedAssistances = &refs
	}

	v, err := h.svc.Update(c.Context(), actor, id, in)
	if err != nil {
		return h.fail(c, err)
	}
	return httpx.OK(c, fiber.StatusOK, toResponse(v))
}

func (h *HTTP) get(c fiber.Ctx) error {
	actor, _ := identity.ActorFrom(c.Context())
	id := httpx.ParamID(c, "id")
	if id == 0 {
		return httpx.Fail(c, fiber.StatusNotFound, "not found")
	}

	v, err := h.svc.Get(c.Context(), actor, id)
	if err != nil {
		return h.fail(c, err)
	}
	return httpx.OK(c, fiber.StatusOK, toResponse(v))
}

func (h *HTTP) list(c fiber.Ctx) error {
	actor, _ := identity.ActorFrom(c.Context())

	views, page, err := h.svc.List(c.Context(), actor,
		httpx.QueryInt32(c, "page", 1), httpx.QueryInt32(c, "per_page", 0))
	if err != nil {
		return h.fail(c, err)
	}
	resp := make([]projectResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, toResponse(v))
	}
	return httpx.OKPage(c, resp, page)
}

func (h *HTTP) softDelete(c fiber.Ctx) error {
	actor, _ := identity.ActorFrom(c.Context())
	id := httpx.ParamID(c, "id")
	if id == 0 {
		return httpx.Fail(c, fiber.StatusNotFound, "not found")
	}

	if err := h.svc.SoftDelete(c.Context(), actor, id); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *HTTP) locks(c fiber.Ctx) error {
	actor, _ := identity.ActorFrom(c.Context())
	id := httpx.ParamID(c, "id")
	if id == 0 {
		return httpx.Fail(c, fiber.StatusNotFound, "not found")
	}

	locks, err := h.svc.LockInfo(c.Context(), actor, id)
	if err != nil {
		return h.fail(c, err)
	}
	return httpx.OK(c, fiber.StatusOK, locksResponse{
		MemberIDs:     locks.MemberIDs,
		AssistanceIDs: locks.AssistanceIDs,
	})
}

func (h *HTTP) fail(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return httpx.Fail(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrNameTaken):
		return httpx.Fail(c, fiber.StatusConflict, "project name already in use")
	default:
		return httpx.MapError(c, err)
	}
}
