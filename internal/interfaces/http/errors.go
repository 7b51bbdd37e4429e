package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stocktake-api/internal/application/dto"
	"github.com/jhoicas/stocktake-api/internal/application/usecase"
	"github.com/jhoicas/stocktake-api/internal/domain"
)

// errorBody arma la respuesta {code, message} del error.
// *domain.Error aporta su código; si viene envuelto en *domain.TaskError se usa el mensaje
// con el contexto del conteo.
func errorBody(err error, fallbackCode string) dto.ErrorResponse {
	var de *domain.Error
	if errors.As(err, &de) {
		return dto.ErrorResponse{Code: de.Code, Message: err.Error()}
	}
	return dto.ErrorResponse{Code: fallbackCode, Message: err.Error()}
}

// statusFor traduce la clase de error de dominio a código HTTP.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrState):
		return fiber.StatusUnprocessableEntity, "INVALID_STATE"
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, usecase.ErrInsightDisabled):
		return fiber.StatusServiceUnavailable, "AI_UNAVAILABLE"
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, "TIMEOUT"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}

// writeError responde con el código HTTP y cuerpo correspondientes al error.
// Los errores internos no exponen su detalle.
func writeError(c *fiber.Ctx, err error) error {
	status, code := statusFor(err)
	body := errorBody(err, code)
	if status == fiber.StatusInternalServerError {
		body.Message = "error interno"
	}
	return c.Status(status).JSON(body)
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
