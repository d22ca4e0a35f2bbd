// Package httpx holds the JSON response envelope and the error-to-status
// mapping shared by all HTTP handlers.
package httpx

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"reliefbase/backend/internal/logger"
	"reliefbase/backend/internal/pagination"
	"reliefbase/backend/internal/review"
)

// OK writes a success envelope.
func OK(c fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "success",
		"data":   data,
	})
}

// OKPage writes a success envelope with pagination metadata.
func OKPage(c fiber.Ctx, data any, page pagination.Page) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":     "success",
		"data":       data,
		"pagination": page,
	})
}

// Fail writes an error envelope with the given status and message.
func Fail(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}

// MapError translates the shared review sentinels to HTTP statuses. Unknown
// errors are logged and reported as a plain 500 so internals never leak.
// Handlers map their service-local sentinels before falling back here.
func MapError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, review.ErrNoteRequired),
		errors.Is(err, review.ErrInvalidStatus),
		errors.Is(err, review.ErrInvalidAction):
		return Fail(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, review.ErrRoleNotAllowed),
		errors.Is(err, review.ErrAccessDenied):
		return Fail(c, fiber.StatusForbidden, "forbidden")
	case errors.Is(err, review.ErrNotFound):
		return Fail(c, fiber.StatusNotFound, "not found")
	case errors.Is(err, review.ErrAlreadyReviewed):
		return Fail(c, fiber.StatusConflict, err.Error())
	default:
		logger.WithComponent("http").WithError(err).
			WithField("path", c.Path()).Error("request failed")
		return Fail(c, fiber.StatusInternalServerError, "internal error")
	}
}
