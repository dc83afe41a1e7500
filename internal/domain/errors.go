package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")

	// Autenticación.
	ErrAccountNotFound     = errors.New("cuenta no encontrada")
	ErrAccountDisabled     = errors.New("cuenta desactivada")
	ErrInvalidCredentials  = errors.New("credenciales inválidas")
	ErrCredentialDuplicate = errors.New("credencial biométrica ya registrada")

	// Sesión.
	ErrTokenInvalid = errors.New("token inválido")
	ErrTokenExpired = errors.New("token expirado")

	// Autorización.
	ErrPermissionDenied = errors.New("permiso denegado")

	// Auditoría: nunca se propaga al usuario final.
	ErrAuditWriteFailure = errors.New("fallo al escribir la auditoría")
)

// PermissionError transporta el motivo legible de una denegación.
// errors.Is(err, ErrPermissionDenied) es true para cualquier PermissionError.
type PermissionError struct {
	Reason string
}

func (e *PermissionError) Error() string {
	if e.Reason == "" {
		return ErrPermissionDenied.Error()
	}
	return ErrPermissionDenied.Error() + ": " + e.Reason
}

func (e *PermissionError) Unwrap() error { return ErrPermissionDenied }

// Denied construye un PermissionError con el motivo indicado.
func Denied(reason string) error {
	return &PermissionError{Reason: reason}
}

// IsAuthFailure informa si err pertenece a la familia de fallos de credenciales.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrAccountDisabled) ||
		errors.Is(err, ErrInvalidCredentials)
}
