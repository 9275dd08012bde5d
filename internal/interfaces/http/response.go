package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// bindBody decodifica el JSON y aplica las reglas validate de la DTO. nil si todo está bien.
func bindBody(c *fiber.Ctx, out any) *dto.ErrorResponse {
	if err := c.BodyParser(out); err != nil {
		return &dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"}
	}
	return checkStruct(out)
}

// checkStruct devuelve VALIDATION con los campos inválidos; nil si la DTO cumple sus reglas.
func checkStruct(in any) *dto.ErrorResponse {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
		}
		return &dto.ErrorResponse{Code: "VALIDATION", Message: strings.Join(msgs, "; ")}
	}
	return &dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
}

// errorStatus traduce errores de dominio a status y código. El orden importa: las variantes
// (ErrInvalidTransfer, ShortageError) se revisan antes que su error base.
func errorStatus(err error) (int, dto.ErrorResponse) {
	var shortage *domain.ShortageError
	switch {
	case errors.As(err, &shortage):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error(), Details: shortage.Lines}
	case errors.Is(err, domain.ErrInvalidTransfer):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "INVALID_TRANSFER", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	case errors.Is(err, domain.ErrGuardFailed):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "GUARD_FAILED", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidTransition):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "INVALID_TRANSITION", Message: err.Error()}
	case errors.Is(err, domain.ErrDocumentLocked):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "DOCUMENT_LOCKED", Message: err.Error()}
	case errors.Is(err, domain.ErrAlreadyProcessed):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "ALREADY_PROCESSED", Message: err.Error()}
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidMovement):
		return fiber.StatusUnprocessableEntity, dto.ErrorResponse{Code: "INVALID_MOVEMENT", Message: err.Error()}
	case errors.Is(err, domain.ErrUnavailable):
		return fiber.StatusServiceUnavailable, dto.ErrorResponse{Code: "STORAGE_UNAVAILABLE", Message: "almacenamiento no disponible, intente más tarde"}
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: "FORBIDDEN", Message: "el rol no puede realizar esta operación"}
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"}
	}
	return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()}
}

func writeError(c *fiber.Ctx, err error) error {
	status, body := errorStatus(err)
	return c.Status(status).JSON(body)
}
