package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Expendadeur/nutrifix-sub002/internal/domain"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
)

// activeChecker es el contrato mínimo que necesita el middleware. Lo implementa *auth.AuthUseCase.
type activeChecker interface {
	ActiveUser(ctx context.Context, claims entity.Claims) (*entity.User, error)
}

// RequireActiveUser re-comprueba en el directorio que el titular de la sesión siga activo.
// Se aplica a las operaciones sensibles; las lecturas simples confían en el token.
// Debe usarse DESPUÉS de AuthMiddleware.
//
//   - 401 ACCOUNT_INACTIVE → cuenta desactivada o eliminada desde que se emitió el token.
//   - 503 ACCOUNT_CHECK_FAILED → fallo de infraestructura al consultar el directorio.
func RequireActiveUser(checker activeChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := GetClaims(c)
		if !ok {
			return fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "sesión requerida")
		}
		_, err := checker.ActiveUser(c.UserContext(), claims)
		switch {
		case err == nil:
			return c.Next()
		case errors.Is(err, domain.ErrAccountDisabled), errors.Is(err, domain.ErrAccountNotFound):
			return fail(c, fiber.StatusUnauthorized, "ACCOUNT_INACTIVE", "la sesión ya no es válida")
		default:
			return fail(c, fiber.StatusServiceUnavailable, "ACCOUNT_CHECK_FAILED", "no se pudo verificar la cuenta, intente más tarde")
		}
	}
}
