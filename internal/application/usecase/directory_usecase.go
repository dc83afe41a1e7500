package usecase

import (
	"context"
	"fmt"

	"github.com/Expendadeur/nutrifix-sub002/internal/application/dto"
	"github.com/Expendadeur/nutrifix-sub002/internal/application/permission"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/repository"
)

// DirectoryUseCase lectura del directorio de usuarios con las reglas de alcance aplicadas.
type DirectoryUseCase struct {
	users repository.UserDirectory
}

// NewDirectoryUseCase construye el caso de uso con el puerto del directorio.
func NewDirectoryUseCase(users repository.UserDirectory) *DirectoryUseCase {
	return &DirectoryUseCase{users: users}
}

// GetUser devuelve un usuario si el llamante es él mismo, manager de su departamento o admin.
func (uc *DirectoryUseCase) GetUser(ctx context.Context, claims entity.Claims, id string) (*dto.UserResponse, error) {
	user, err := uc.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("buscar usuario: %w", err)
	}
	if user == nil {
		// Solo admin o el propio titular distinguen un ID inexistente; el resto recibe la denegación.
		if err := permission.RequireOwnership(claims, permission.Record{"id": id}, "id"); err != nil {
			return nil, err
		}
		return nil, domain.ErrNotFound
	}
	err = permission.Require(claims, permission.Any(
		permission.Ownership(permission.Record{"id": user.ID}, "id"),
		permission.Department(user.DepartmentID),
	))
	if err != nil {
		return nil, err
	}
	return dto.ToUserResponse(user), nil
}

// ListDepartment lista los usuarios de un departamento (admin o su manager).
func (uc *DirectoryUseCase) ListDepartment(ctx context.Context, claims entity.Claims, departmentID string, page dto.PageRequest) (*dto.UserListResponse, error) {
	if departmentID == "" {
		return nil, fmt.Errorf("%w: departamento requerido", domain.ErrInvalidInput)
	}
	if err := permission.RequireDepartment(claims, departmentID); err != nil {
		return nil, err
	}
	page = page.Normalized()
	users, err := uc.users.ListByDepartment(ctx, departmentID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("listar departamento: %w", err)
	}
	items := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, *dto.ToUserResponse(u))
	}
	return &dto.UserListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}
