package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/Expendadeur/nutrifix-sub002/internal/application/dto"
	"github.com/Expendadeur/nutrifix-sub002/internal/application/usecase"
	"github.com/Expendadeur/nutrifix-sub002/internal/application/validation"
	"github.com/Expendadeur/nutrifix-sub002/pkg/logger"
)

// UserHandler lectura del directorio.
type UserHandler struct {
	uc  *usecase.DirectoryUseCase
	log *logger.Logger
}

// NewUserHandler construye el handler.
func NewUserHandler(uc *usecase.DirectoryUseCase, log *logger.Logger) *UserHandler {
	return &UserHandler{uc: uc, log: log}
}

// GetByID godoc
// @Summary      Obtener usuario
// @Description  El propio usuario, el manager de su departamento o un admin.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "ID del usuario"
// @Success      200  {object}  dto.UserResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/users/{id} [get]
func (h *UserHandler) GetByID(c *fiber.Ctx) error {
	claims, _ := GetClaims(c)
	out, err := h.uc.GetUser(c.UserContext(), claims, utils.CopyString(c.Params("id")))
	if err != nil {
		return respondError(c, err, ErrorPolicy{}, h.log)
	}
	return c.JSON(out)
}

// ListDepartment godoc
// @Summary      Usuarios de un departamento
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id      path   string  true   "ID del departamento"
// @Param        limit   query  int     false  "máximo de resultados (1-200)"
// @Param        offset  query  int     false  "desplazamiento"
// @Success      200  {object}  dto.UserListResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/departments/{id}/users [get]
func (h *UserHandler) ListDepartment(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return fail(c, fiber.StatusBadRequest, "INVALID_QUERY", "parámetros de consulta inválidos")
	}
	if err := validation.Struct(page); err != nil {
		return respondError(c, err, ErrorPolicy{}, h.log)
	}
	claims, _ := GetClaims(c)
	out, err := h.uc.ListDepartment(c.UserContext(), claims, utils.CopyString(c.Params("id")), page)
	if err != nil {
		return respondError(c, err, ErrorPolicy{}, h.log)
	}
	return c.JSON(out)
}
