package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Expendadeur/nutrifix-sub002/internal/application/permission"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
)

// LocalClaims clave de c.Locals con las entity.Claims de la sesión.
const LocalClaims = "claims"

// TokenDecoder decodifica tokens de sesión. Lo implementa *auth.SessionIssuer.
type TokenDecoder interface {
	Decode(token string) (entity.Claims, error)
}

// BearerToken extrae el token del header Authorization. "" si falta o no es Bearer.
func BearerToken(c *fiber.Ctx) string {
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AuthMiddleware valida el Bearer token y deja las claims en c.Locals.
// Un token vencido responde TOKEN_EXPIRED y uno malformado o alterado INVALID_TOKEN.
func AuthMiddleware(decoder TokenDecoder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return fail(c, fiber.StatusUnauthorized, "MISSING_TOKEN", "Authorization header requerido")
		}
		token := BearerToken(c)
		if token == "" {
			return fail(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "formato: Bearer <token>")
		}
		claims, err := decoder.Decode(token)
		if err != nil {
			if errors.Is(err, domain.ErrTokenExpired) {
				return fail(c, fiber.StatusUnauthorized, "TOKEN_EXPIRED", msgTokenExpired)
			}
			return fail(c, fiber.StatusUnauthorized, "INVALID_TOKEN", msgTokenInvalid)
		}
		c.Locals(LocalClaims, claims)
		return c.Next()
	}
}

// GetClaims devuelve las claims puestas por AuthMiddleware.
func GetClaims(c *fiber.Ctx) (entity.Claims, bool) {
	claims, ok := c.Locals(LocalClaims).(entity.Claims)
	return claims, ok
}

// GetUserID devuelve el ID del titular de la sesión, o "".
func GetUserID(c *fiber.Ctx) string {
	claims, _ := GetClaims(c)
	return claims.SubjectID
}

// GetRole devuelve el rol del titular de la sesión, o "".
func GetRole(c *fiber.Ctx) string {
	claims, _ := GetClaims(c)
	return claims.Role
}

// RequireRole autoriza por rol; admin pasa siempre. Debe ir después de AuthMiddleware.
func RequireRole(allowed ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := GetClaims(c)
		if !ok || claims.Role == "" {
			return fail(c, fiber.StatusUnauthorized, "MISSING_ROLE", "la sesión no incluye un rol")
		}
		if err := permission.RequireRole(claims, allowed...); err != nil {
			return fail(c, fiber.StatusForbidden, "FORBIDDEN", msgForbidden)
		}
		return c.Next()
	}
}
