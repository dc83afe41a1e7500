package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin               = "admin"
	RoleManager             = "manager"
	RoleComptable           = "comptable"
	RoleVeterinaire         = "veterinaire"
	RoleChauffeur           = "chauffeur"
	RoleEmploye             = "employe"
	RoleEmployeTempsPartiel = "employe_temps_partiel"
)

// Estados de cuenta.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// User representa un usuario del directorio externo (solo lectura para este núcleo).
type User struct {
	ID           string
	Email        string
	Matricule    string
	Name         string
	Role         string
	DepartmentID string // vacío si el usuario no pertenece a un departamento
	Status       string // active, disabled
	PasswordHash string // bcrypt
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActive informa si la cuenta puede obtener o conservar una sesión.
func (u *User) IsActive() bool {
	return u != nil && u.Status == StatusActive
}

// KnownRole informa si role es uno de los roles del sistema.
func KnownRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleComptable, RoleVeterinaire,
		RoleChauffeur, RoleEmploye, RoleEmployeTempsPartiel:
		return true
	}
	return false
}
