package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/Expendadeur/nutrifix-sub002/internal/application/auth"
	"github.com/Expendadeur/nutrifix-sub002/internal/application/dto"
	"github.com/Expendadeur/nutrifix-sub002/internal/application/validation"
	"github.com/Expendadeur/nutrifix-sub002/pkg/logger"
)

// AuthHandler maneja login, renovación y perfil.
type AuthHandler struct {
	uc     *auth.AuthUseCase
	policy ErrorPolicy
	log    *logger.Logger
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc *auth.AuthUseCase, policy ErrorPolicy, log *logger.Logger) *AuthHandler {
	return &AuthHandler{uc: uc, policy: policy, log: log}
}

func requestMeta(c *fiber.Ctx) dto.RequestMeta {
	return dto.RequestMeta{
		SourceIP:  utils.CopyString(c.IP()),
		UserAgent: utils.CopyString(c.Get(fiber.HeaderUserAgent)),
	}
}

// Login godoc
// @Summary      Iniciar sesión
// @Description  Exactamente una prueba: identifier+password, matricule+password, qr_payload o biometric_assertion.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "prueba de identidad"
// @Success      200   {object}  dto.LoginResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
	}
	if err := validation.Struct(in); err != nil {
		return respondError(c, err, h.policy, h.log)
	}
	if in.Identifier != "" {
		if err := validateIdentifier(in.Identifier); err != nil {
			return respondError(c, err, h.policy, h.log)
		}
	}
	out, err := h.uc.Login(c.UserContext(), in, requestMeta(c))
	if err != nil {
		return respondError(c, err, h.policy, h.log)
	}
	return c.JSON(out)
}

// Refresh godoc
// @Summary      Renovar sesión
// @Description  Solo mientras el token no haya expirado; acepta el header Authorization o {"token"}.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RefreshRequest  false  "token (opcional si va en el header)"
// @Success      200   {object}  dto.LoginResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	token := BearerToken(c)
	if token == "" {
		var in dto.RefreshRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&in); err != nil {
				return fail(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
			}
		}
		token = in.Token
	}
	if token == "" {
		return fail(c, fiber.StatusUnauthorized, "MISSING_TOKEN", "token requerido")
	}
	out, err := h.uc.Refresh(c.UserContext(), token)
	if err != nil {
		return respondError(c, err, h.policy, h.log)
	}
	return c.JSON(out)
}

// Me godoc
// @Summary      Perfil de la sesión
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.UserResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	claims, _ := GetClaims(c)
	out, err := h.uc.Me(c.UserContext(), claims)
	if err != nil {
		return respondError(c, err, h.policy, h.log)
	}
	return c.JSON(out)
}

// RegisterBiometric godoc
// @Summary      Registrar credencial biométrica
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.RegisterBiometricRequest  true  "credencial de plataforma"
// @Success      201   {object}  dto.BiometricCredentialResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/auth/biometric/register [post]
func (h *AuthHandler) RegisterBiometric(c *fiber.Ctx) error {
	var in dto.RegisterBiometricRequest
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
	}
	if err := validation.Struct(in); err != nil {
		return respondError(c, err, h.policy, h.log)
	}
	claims, _ := GetClaims(c)
	out, err := h.uc.RegisterBiometric(c.UserContext(), claims, in, requestMeta(c))
	if err != nil {
		return respondError(c, err, h.policy, h.log)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// IssueQR godoc
// @Summary      Emitir QR de credencial
// @Description  Admin o manager del departamento del empleado.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del usuario"
// @Success      201  {object}  dto.QRBadgeResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/users/{id}/qr [post]
func (h *AuthHandler) IssueQR(c *fiber.Ctx) error {
	claims, _ := GetClaims(c)
	out, err := h.uc.IssueQR(c.UserContext(), claims, utils.CopyString(c.Params("id")), requestMeta(c))
	if err != nil {
		return respondError(c, err, h.policy, h.log)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// validateIdentifier acepta un email o una matrícula alfanumérica.
func validateIdentifier(s string) error {
	schema := validation.Schema{"identifier": validation.StringRule{Required: true, Min: 2, Max: 254}}
	if err := validation.Validate(map[string]any{"identifier": s}, schema); err != nil {
		return err
	}
	if s = strings.TrimSpace(s); strings.Contains(s, "@") {
		return validation.Validate(map[string]any{"identifier": s}, validation.Schema{"identifier": validation.EmailRule{Required: true}})
	}
	return nil
}
