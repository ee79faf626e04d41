// Package response provides the JSON envelopes shared by all handlers.
// Errors follow the gateway error contract:
// {"error":{"code":"...","description":"..."}}.
package response

import (
	"github.com/gofiber/fiber/v2"
)

// Error codes surfaced to API callers.
const (
	CodeAuthentication = "AUTHENTICATION_ERROR"
	CodeBadRequest     = "BAD_REQUEST_ERROR"
	CodeNotFound       = "NOT_FOUND_ERROR"
	CodeInvalidVPA     = "INVALID_VPA"
	CodeInvalidCard    = "INVALID_CARD"
	CodeExpiredCard    = "EXPIRED_CARD"
)

func JSON(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(data)
}

func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(data)
}

func Error(c *fiber.Ctx, status int, code, description string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":        code,
			"description": description,
		},
	})
}

func BadRequest(c *fiber.Ctx, description string) error {
	return Error(c, fiber.StatusBadRequest, CodeBadRequest, description)
}

func NotFound(c *fiber.Ctx, description string) error {
	return Error(c, fiber.StatusNotFound, CodeNotFound, description)
}

func Unauthorized(c *fiber.Ctx) error {
	return Error(c, fiber.StatusUnauthorized, CodeAuthentication, "Invalid API credentials")
}
