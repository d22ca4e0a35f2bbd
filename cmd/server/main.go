package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reliefbase/backend/internal/access"
	"reliefbase/backend/internal/assistance/repository"
	assistancesvc "reliefbase/backend/internal/assistance/service"
	"reliefbase/backend/internal/audit"
	auditrepo "reliefbase/backend/internal/audit/repository"
	beneficiaryrepo "reliefbase/backend/internal/beneficiary/repository"
	beneficiarysvc "reliefbase/backend/internal/beneficiary/service"
	"reliefbase/backend/internal/config"
	"reliefbase/backend/internal/db"
	"reliefbase/backend/internal/db/migrate"
	deliveryrepo "reliefbase/backend/internal/delivery/repository"
	deliverysvc "reliefbase/backend/internal/delivery/service"
	"reliefbase/backend/internal/logger"
	membershiprepo "reliefbase/backend/internal/membership/repository"
	membershipsvc "reliefbase/backend/internal/membership/service"
	organizationrepo "reliefbase/backend/internal/organization/repository"
	projectrepo "reliefbase/backend/internal/project/repository"
	projectsvc "reliefbase/backend/internal/project/service"
	"reliefbase/backend/internal/security"
	"reliefbase/backend/internal/server"
	"reliefbase/backend/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L().WithError(err).Fatal("config")
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log := logger.WithComponent("main")

	ctx := context.Background()
	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "reliefbase-api", cfg.OTLPInsecure)
	if err != nil {
		log.WithError(err).Fatal("telemetry")
	}
	providers.SetGlobal()

	if cfg.MigrateOnStart {
		if err := migrate.Run(cfg.DatabaseURL, "up"); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.WithError(err).Fatal("migrate")
		}
	}

	pool, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("database")
	}
	defer pool.Close()

	verifier, err := security.NewVerifier(cfg.JWTPublicKey, cfg.JWTIssuer, cfg.JWTAudience)
	if err != nil {
		log.WithError(err).Fatal("jwt verifier")
	}

	orgRepo := organizationrepo.NewPostgresRepository(pool)
	memberRepo := membershiprepo.NewPostgresRepository(pool)
	projectRepo := projectrepo.NewPostgresRepository(pool)
	assistanceRepo := repository.NewPostgresRepository(pool)
	beneficiaryRepo := beneficiaryrepo.NewPostgresRepository(pool)
	deliveryRepo := deliveryrepo.NewPostgresRepository(pool)
	auditRepo := auditrepo.NewPostgresRepository(pool)

	recorder := audit.NewRecorder(auditRepo)
	policy := access.NewEvaluator(projectRepo)

	app := server.New(server.Deps{
		Verifier:      verifier,
		Memberships:   memberRepo,
		DBPinger:      pool,
		Projects:      projectsvc.NewService(pool, projectRepo, policy, recorder),
		Beneficiaries: beneficiarysvc.NewService(pool, beneficiaryRepo, projectRepo, policy, recorder),
		Deliveries:    deliverysvc.NewService(pool, deliveryRepo, projectRepo, beneficiaryRepo, policy, recorder),
		MemberAdmin:   membershipsvc.NewService(pool, memberRepo, orgRepo, beneficiaryRepo, deliveryRepo, recorder),
		Assistances:   assistancesvc.NewService(assistanceRepo),
		AuditQuery:    audit.NewQuery(auditRepo),
	})

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("http server listening")
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.WithError(err).Fatal("serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("telemetry shutdown")
	}
	log.Info("stopped")
}
