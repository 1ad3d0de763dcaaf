/**
 * @description
 * Shared handler plumbing: the service-error to HTTP status mapping and the
 * request payload validator.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - github.com/go-playground/validator/v10
 */

package handlers

import (
	"errors"

	"github.com/bookclub-project/backend/internal/logger"
	"github.com/bookclub-project/backend/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var validate = validator.New()

// svcError maps a service-layer error onto an HTTP response.
// Sentinel errors become 4xx; anything else is logged and becomes a 500.
func svcError(c *fiber.Ctx, op string, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidState):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}
	logger.Error("%s: %v", op, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

// parseIDParam reads a UUID path parameter. On failure the 400 response is
// already written and ok is false; the handler should just return nil.
func parseIDParam(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid " + name,
		})
		return uuid.Nil, false
	}
	return id, true
}

// parseBody decodes and validates a JSON payload. Same contract as
// parseIDParam: on failure the 400 is already written.
func parseBody(c *fiber.Ctx, out interface{}) bool {
	if err := c.BodyParser(out); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body", "details": err.Error(),
		})
		return false
	}
	if err := validate.Struct(out); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Validation failed", "details": err.Error(),
		})
		return false
	}
	return true
}
