// Package handler serves readiness/liveness for load balancers and CI.
package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"
)

// Pinger reports database reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HTTP handles /healthz. A nil pinger reports serving (no DB dependency).
type HTTP struct {
	db Pinger
}

func NewHTTP(db Pinger) *HTTP {
	return &HTTP{db: db}
}

// Register mounts the health route on r.
func (h *HTTP) Register(r fiber.Router) {
	r.Get("/healthz", h.check)
}

func (h *HTTP) check(c fiber.Ctx) error {
	if h.db != nil {
		if err := h.db.PingContext(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not_serving",
			})
		}
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "serving"})
}
