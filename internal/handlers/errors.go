package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// apiError is a caller-facing failure carrying an optional diagnostic
// details string alongside the localized message.
type apiError struct {
	Status  int
	Message string
	Details string
}

func (e *apiError) Error() string {
	return e.Message
}

// internalError wraps a lower-level failure into a 500 response that
// exposes the underlying message in the details field.
func internalError(message string, err error) *apiError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &apiError{Status: fiber.StatusInternalServerError, Message: message, Details: details}
}

// conflictError maps a persistence conflict to a 409 with details.
func conflictError(message string, err error) *apiError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &apiError{Status: fiber.StatusConflict, Message: message, Details: details}
}

// ErrorHandler maps every error that escapes a handler onto the single
// JSON error shape {error, details?}. Nothing crosses the boundary
// unformatted.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var api *apiError
	if errors.As(err, &api) {
		body := fiber.Map{"error": api.Message}
		if api.Details != "" {
			body["details"] = api.Details
		}
		return c.Status(api.Status).JSON(body)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "Não foi possível processar a solicitação.",
		"details": err.Error(),
	})
}
