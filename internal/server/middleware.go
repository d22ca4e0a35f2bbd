package server

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"reliefbase/backend/internal/identity"
	"reliefbase/backend/internal/logger"
	membershipdomain "reliefbase/backend/internal/membership/domain"
	membershiprepo "reliefbase/backend/internal/membership/repository"
	"reliefbase/backend/internal/security"
	"reliefbase/backend/internal/server/httpx"
)

const bearerPrefix = "bearer "

// Identity verifies the Bearer access token, loads the membership it names,
// and stores the resulting actor plus the caller's IP in the request context.
// Inactive or mismatched memberships are rejected even when the token itself
// still validates.
func Identity(verifier *security.Verifier, memberships membershiprepo.Repository) fiber.Handler {
	return func(c fiber.Ctx) error {
		token := extractBearer(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return httpx.Fail(c, fiber.StatusUnauthorized, "missing or invalid authorization")
		}
		claims, err := verifier.Verify(token)
		if err != nil {
			return httpx.Fail(c, fiber.StatusUnauthorized, "missing or invalid authorization")
		}

		m, err := memberships.GetMembershipByID(c.Context(), claims.MembershipID)
		if err != nil {
			return httpx.MapError(c, err)
		}
		if m == nil || m.UserID != claims.UserID() || m.OrgID != claims.OrgID {
			return httpx.Fail(c, fiber.StatusUnauthorized, "missing or invalid authorization")
		}
		if m.Status != membershipdomain.StatusActive {
			return httpx.Fail(c, fiber.StatusUnauthorized, "membership is inactive")
		}

		// The membership row is fresher than the token; its role wins.
		actor := identity.Actor{
			UserID:       m.UserID,
			OrgID:        m.OrgID,
			MembershipID: m.ID,
			Role:         m.Role,
		}
		ctx := identity.WithActor(c.Context(), actor)
		ctx = identity.WithClientIP(ctx, clientIP(c))
		c.SetContext(ctx)
		return c.Next()
	}
}

// extractBearer returns the token from an Authorization header value, or ""
// if missing or malformed.
func extractBearer(v string) string {
	v = strings.TrimSpace(v)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}

// clientIP resolves the original caller address: first X-Forwarded-For hop
// when present, else the peer address.
func clientIP(c fiber.Ctx) string {
	if fwd := c.Get(fiber.HeaderXForwardedFor); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}
	if ip := c.IP(); ip != "" {
		return ip
	}
	return "unknown"
}

// Tracing opens one span per request on the global tracer provider. A no-op
// provider makes this free when no OTLP endpoint is configured.
func Tracing() fiber.Handler {
	tracer := otel.Tracer("reliefbase/backend/internal/server")
	return func(c fiber.Ctx) error {
		ctx, span := tracer.Start(c.Context(), c.Method()+" "+c.Path())
		defer span.End()
		c.SetContext(ctx)

		err := c.Next()

		span.SetAttributes(
			attribute.String("http.method", c.Method()),
			attribute.String("http.route", c.Route().Path),
			attribute.Int("http.status_code", c.Response().StatusCode()),
		)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	}
}

// AccessLog writes one structured line per request.
func AccessLog() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		var membershipID int64
		if actor, ok := identity.ActorFrom(c.Context()); ok {
			membershipID = actor.MembershipID
		}
		logger.WithRequest(c.GetRespHeader("X-Request-ID"), membershipID).WithFields(map[string]interface{}{
			"component":   "http",
			"method":      c.Method(),
			"path":        c.Path(),
			"status":      c.Response().StatusCode(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("request")
		return err
	}
}
