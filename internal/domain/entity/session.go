package entity

import "time"

// ClientKind distingue la ventana de expiración aplicable.
type ClientKind string

const (
	ClientWeb    ClientKind = "web"
	ClientMobile ClientKind = "mobile"
)

// Claims es el contenido verificado de un token de sesión.
type Claims struct {
	SubjectID    string
	Role         string
	DepartmentID string
	Method       AuthMethod
	Client       ClientKind
	TokenID      string
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// IsAdmin informa si las claims pertenecen a un administrador.
func (c Claims) IsAdmin() bool { return c.Role == RoleAdmin }

// Session es una sesión emitida. Inmutable; solo expira.
type Session struct {
	Token        string
	SubjectID    string
	Role         string
	DepartmentID string
	Method       AuthMethod
	Client       ClientKind
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// Claims devuelve las claims equivalentes a la sesión.
func (s Session) Claims() Claims {
	return Claims{
		SubjectID:    s.SubjectID,
		Role:         s.Role,
		DepartmentID: s.DepartmentID,
		Method:       s.Method,
		Client:       s.Client,
		IssuedAt:     s.IssuedAt,
		ExpiresAt:    s.ExpiresAt,
	}
}
