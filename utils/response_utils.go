package utils

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"

	"github.com/geotsn/aggeliesergasias/internal/intake"
)

// RespondWithError sends a JSON error response.
func RespondWithError(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}

// RespondWithJSON sends a JSON success response.
func RespondWithJSON(c *fiber.Ctx, statusCode int, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status": "success",
		"data":   data,
	})
}

// RespondWithValidationError sends a 422 naming every missing and invalid
// field. It reports false when err is not a validation error.
func RespondWithValidationError(c *fiber.Ctx, err error) (bool, error) {
	var verr *intake.ValidationError
	if !errors.As(err, &verr) {
		return false, nil
	}
	return true, c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"status":        "error",
		"message":       verr.Error(),
		"missingFields": nonNil(verr.MissingFields),
		"invalidFields": nonNil(verr.InvalidFields),
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
