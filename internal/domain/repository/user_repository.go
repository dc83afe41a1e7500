package repository

import (
	"context"

	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
)

// UserDirectory define el puerto de lectura sobre el directorio de usuarios (DIP).
// Las búsquedas devuelven (nil, nil) cuando el usuario no existe.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*entity.User, error)
	// FindByIdentifier busca por email o, si no coincide, por matrícula.
	FindByIdentifier(ctx context.Context, identifier string) (*entity.User, error)
	FindByMatricule(ctx context.Context, matricule string) (*entity.User, error)
	ListByDepartment(ctx context.Context, departmentID string, limit, offset int) ([]*entity.User, error)
}
