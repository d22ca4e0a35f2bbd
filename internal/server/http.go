// Package server assembles the fiber application: middleware stack, route
// groups, and the error surface shared by every handler.
package server

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"

	assistancehandler "reliefbase/backend/internal/assistance/handler"
	assistancesvc "reliefbase/backend/internal/assistance/service"
	"reliefbase/backend/internal/audit"
	audithandler "reliefbase/backend/internal/audit/handler"
	beneficiaryhandler "reliefbase/backend/internal/beneficiary/handler"
	beneficiarysvc "reliefbase/backend/internal/beneficiary/service"
	deliveryhandler "reliefbase/backend/internal/delivery/handler"
	deliverysvc "reliefbase/backend/internal/delivery/service"
	healthhandler "reliefbase/backend/internal/health/handler"
	membershiphandler "reliefbase/backend/internal/membership/handler"
	membershiprepo "reliefbase/backend/internal/membership/repository"
	membershipsvc "reliefbase/backend/internal/membership/service"
	projecthandler "reliefbase/backend/internal/project/handler"
	projectsvc "reliefbase/backend/internal/project/service"
	"reliefbase/backend/internal/security"
	"reliefbase/backend/internal/server/httpx"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Verifier    *security.Verifier
	Memberships membershiprepo.Repository
	DBPinger    healthhandler.Pinger

	Projects      *projectsvc.Service
	Beneficiaries *beneficiarysvc.Service
	Deliveries    *deliverysvc.Service
	MemberAdmin   *membershipsvc.Service
	Assistances   *assistancesvc.Service
	AuditQuery    *audit.Query
}

// New builds the fiber app with all routes mounted. /healthz is public;
// everything under /api/v1 requires a verified actor.
func New(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "reliefbase-api",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: func(c fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return httpx.Fail(c, e.Code, e.Message)
			}
			return httpx.MapError(c, err)
		},
	})

	app.Use(requestid.New())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			"X-Request-ID", "X-Client-Platform",
		},
		ExposeHeaders: []string{"X-Request-ID"},
	}))
	app.Use(Tracing())
	app.Use(AccessLog())

	healthhandler.NewHTTP(deps.DBPinger).Register(app)

	validate := validator.New()
	api := app.Group("/api/v1", Identity(deps.Verifier, deps.Memberships))
	projecthandler.NewHTTP(deps.Projects, validate).Register(api)
	beneficiaryhandler.NewHTTP(deps.Beneficiaries, validate).Register(api)
	deliveryhandler.NewHTTP(deps.Deliveries, validate).Register(api)
	membershiphandler.NewHTTP(deps.MemberAdmin, validate).Register(api)
	assistancehandler.NewHTTP(deps.Assistances, validate).Register(api)
	audithandler.NewHTTP(deps.AuditQuery).Register(api)

	return app
}
