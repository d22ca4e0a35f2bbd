package httpx

import (
	"strconv"

	"github.com/gofiber/fiber/v3"
)

// ParamID parses a numeric path parameter. Returns 0 when missing or not a
// positive integer; handlers treat 0 as not-found input.
func ParamID(c fiber.Ctx, name string) int64 {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id < 1 {
		return 0
	}
	return id
}

// QueryInt32 parses an optional numeric query parameter with a default.
func QueryInt32(c fiber.Ctx, name string, def int32) int32 {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return def
	}
	return int32(v)
}

// QueryID parses an optional numeric query parameter, 0 when absent.
func QueryID(c fiber.Ctx, name string) int64 {
	v, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil || v < 1 {
		return 0
	}
	return v
}
