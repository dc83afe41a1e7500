package dto

import (
	"time"

	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
)

// UserResponse salida de un usuario (sin hash de contraseña).
type UserResponse struct {
	ID           string    `json:"id"`
	Email        string    `json:"email,omitempty"`
	Matricule    string    `json:"matricule,omitempty"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	DepartmentID string    `json:"department_id,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserListResponse página de usuarios.
type UserListResponse struct {
	Items []UserResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// ToUserResponse proyecta la entidad a su forma pública.
func ToUserResponse(u *entity.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Matricule:    u.Matricule,
		Name:         u.Name,
		Role:         u.Role,
		DepartmentID: u.DepartmentID,
		Status:       u.Status,
		CreatedAt:    u.CreatedAt,
	}
}
