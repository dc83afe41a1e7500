package dto

import "time"

// LoginRequest entrada de login: exactamente una prueba (identifier, matricule,
// qr_payload o biometric_assertion); password acompaña a identifier y matricule.
type LoginRequest struct {
	Identifier         string                 `json:"identifier" validate:"omitempty,max=254"`
	Matricule          string                 `json:"matricule" validate:"omitempty,max=64"`
	Password           string                 `json:"password" validate:"omitempty,max=128"`
	QRPayload          string                 `json:"qr_payload" validate:"omitempty,max=4096"`
	BiometricAssertion *BiometricAssertionDTO `json:"biometric_assertion" validate:"omitempty"`
	Client             string                 `json:"client" validate:"omitempty,oneof=web mobile"`
}

// BiometricAssertionDTO aserción de un autenticador de plataforma.
type BiometricAssertionDTO struct {
	CredentialID      string `json:"credential_id" validate:"required,max=512"`
	Signature         string `json:"signature" validate:"required"`
	AuthenticatorData string `json:"authenticator_data" validate:"required"`
	ClientData        string `json:"client_data" validate:"omitempty"`
}

// LoginResponse salida de login exitoso.
type LoginResponse struct {
	Success   bool         `json:"success"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	Method    string       `json:"method"`
	User      UserResponse `json:"user"`
}

// RefreshRequest entrada de renovación (alternativa al header Authorization).
type RefreshRequest struct {
	Token string `json:"token"`
}

// RegisterBiometricRequest vínculo de una credencial de plataforma a la cuenta del llamante.
type RegisterBiometricRequest struct {
	CredentialID string `json:"credential_id" validate:"required,max=512"`
	PublicKey    string `json:"public_key" validate:"required"`
	Label        string `json:"label" validate:"omitempty,max=100"`
}

// BiometricCredentialResponse credencial registrada.
type BiometricCredentialResponse struct {
	CredentialID string    `json:"credential_id"`
	UserID       string    `json:"user_id"`
	Label        string    `json:"label,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// QRBadgeResponse contenido firmado para imprimir en la credencial.
type QRBadgeResponse struct {
	UserID   string    `json:"user_id"`
	Payload  string    `json:"payload"`
	IssuedAt time.Time `json:"issued_at"`
}
