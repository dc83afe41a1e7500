package http

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Expendadeur/nutrifix-sub002/internal/application/dto"
	"github.com/Expendadeur/nutrifix-sub002/internal/application/validation"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain"
	"github.com/Expendadeur/nutrifix-sub002/pkg/logger"
)

// Mensajes públicos. No dicen qué regla o qué dato falló.
const (
	msgLoginFailed     = "identificador o contraseña incorrectos"
	msgAccountDisabled = "la cuenta está desactivada"
	msgForbidden       = "no tiene permiso para realizar esta operación"
	msgTokenExpired    = "la sesión ha expirado"
	msgTokenInvalid    = "token inválido"
	msgInternal        = "error interno, intente más tarde"
)

// ErrorPolicy decide cuánto detalle se expone en los fallos de login.
type ErrorPolicy struct {
	ExposeDisabledAccount bool
}

// ValidationErrorResponse error 400 con detalle por campo.
type ValidationErrorResponse struct {
	dto.ErrorResponse
	Fields validation.Errors `json:"fields,omitempty"`
}

func fail(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Success: false, Code: code, Message: message})
}

// respondError traduce un error de dominio a su respuesta HTTP.
func respondError(c *fiber.Ctx, err error, policy ErrorPolicy, log *logger.Logger) error {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return c.Status(fiber.StatusBadRequest).JSON(ValidationErrorResponse{
			ErrorResponse: dto.ErrorResponse{Success: false, Code: "VALIDATION", Message: "datos de entrada inválidos"},
			Fields:        verrs,
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return fail(c, fiber.StatusBadRequest, "VALIDATION", err.Error())
	case errors.Is(err, domain.ErrAccountDisabled):
		if policy.ExposeDisabledAccount {
			return fail(c, fiber.StatusForbidden, "ACCOUNT_DISABLED", msgAccountDisabled)
		}
		return fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", msgLoginFailed)
	case errors.Is(err, domain.ErrAccountNotFound), errors.Is(err, domain.ErrInvalidCredentials):
		return fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", msgLoginFailed)
	case errors.Is(err, domain.ErrTokenExpired):
		return fail(c, fiber.StatusUnauthorized, "TOKEN_EXPIRED", msgTokenExpired)
	case errors.Is(err, domain.ErrTokenInvalid):
		return fail(c, fiber.StatusUnauthorized, "INVALID_TOKEN", msgTokenInvalid)
	case errors.Is(err, domain.ErrPermissionDenied):
		return fail(c, fiber.StatusForbidden, "FORBIDDEN", msgForbidden)
	case errors.Is(err, domain.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "NOT_FOUND", "recurso no encontrado")
	case errors.Is(err, domain.ErrCredentialDuplicate):
		return fail(c, fiber.StatusConflict, "CREDENTIAL_EXISTS", "la credencial ya está registrada")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fail(c, fiber.StatusServiceUnavailable, "TIMEOUT", "la operación no terminó a tiempo")
	}
	if log != nil {
		log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("error no controlado")
	}
	return fail(c, fiber.StatusInternalServerError, "INTERNAL", msgInternal)
}

// ErrorHandler manejador de errores de fiber: respeta *fiber.Error y traduce el resto.
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return fail(c, fe.Code, "HTTP_"+strconv.Itoa(fe.Code), fe.Message)
		}
		return respondError(c, err, ErrorPolicy{}, log)
	}
}
