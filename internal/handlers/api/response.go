package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"salesforecast/internal/predict"
	"salesforecast/internal/validation"
)

// jsonSuccess returns a 200 response with data wrapped in the standard envelope.
func jsonSuccess(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonError returns an error response with the given HTTP status code.
func jsonError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"error":  message,
	})
}

// jsonFailure returns a prediction failure including its error kind.
func jsonFailure(c fiber.Ctx, err error) error {
	body := fiber.Map{
		"status": "error",
		"error":  err.Error(),
	}
	if kind := predict.KindOf(err); kind != "" {
		body["kind"] = kind
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		body["kind"] = "invalid_input"
		body["fields"] = verrs
	}
	return c.Status(StatusFor(err)).JSON(body)
}

// StatusFor maps a prediction failure to an HTTP status code.
func StatusFor(err error) int {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return fiber.StatusBadRequest
	}
	switch predict.KindOf(err) {
	case predict.ArtifactLoad:
		return fiber.StatusServiceUnavailable
	case predict.SchemaMismatch:
		return fiber.StatusUnprocessableEntity
	}
	return fiber.StatusInternalServerError
}
