package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/bodegas-api/internal/application/dto"
	"github.com/jhoicas/bodegas-api/internal/domain"
)

// writeError traduce errores de dominio a status HTTP y dto.ErrorResponse.
func writeError(c *fiber.Ctx, err error) error {
	status, code := fiber.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrInsufficientStock):
		status, code = fiber.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrExceedsPending):
		status, code = fiber.StatusConflict, "EXCEEDS_PENDING"
	case errors.Is(err, domain.ErrInvalidState):
		status, code = fiber.StatusConflict, "INVALID_STATE"
	case errors.Is(err, domain.ErrUnknownPresentation):
		status, code = fiber.StatusUnprocessableEntity, "UNKNOWN_PRESENTATION"
	case errors.Is(err, domain.ErrInvalidConversionFactor):
		status, code = fiber.StatusUnprocessableEntity, "INVALID_CONVERSION_FACTOR"
	case errors.Is(err, domain.ErrDuplicate):
		status, code = fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrForbidden):
		status, code = fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrConflict):
		status, code = fiber.StatusConflict, "CONFLICT"
	}
	body := dto.ErrorResponse{Code: code, Message: err.Error()}
	if status == fiber.StatusInternalServerError {
		body.Message = "error interno"
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body.Field = verr.Field
	}
	var serr *domain.InsufficientStockError
	if errors.As(err, &serr) {
		for _, s := range serr.Shortfalls {
			body.Shortfalls = append(body.Shortfalls, dto.ShortfallResponse{
				ItemID:      s.ItemID,
				WarehouseID: s.WarehouseID,
				Requested:   s.Requested,
				Available:   s.Available,
			})
		}
	}
	return c.Status(status).JSON(body)
}

// bindBody parsea el body y aplica las etiquetas validate. Responde 400 y devuelve false si falla.
func bindBody(c *fiber.Ctx, v *validator.Validate, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := v.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		msg := err.Error()
		if errors.As(err, &verrs) && len(verrs) > 0 {
			msg = verrs[0].Namespace() + ": " + verrs[0].Tag()
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: msg})
	}
	return true, nil
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: msg})
}
