package entity

import "time"

// AuthMethod identifica la prueba usada para abrir una sesión.
type AuthMethod string

const (
	MethodPassword  AuthMethod = "password"
	MethodMatricule AuthMethod = "matricule"
	MethodQR        AuthMethod = "qr"
	MethodBiometric AuthMethod = "biometric"
)

// Valid informa si m es un método conocido.
func (m AuthMethod) Valid() bool {
	switch m {
	case MethodPassword, MethodMatricule, MethodQR, MethodBiometric:
		return true
	}
	return false
}

// Proof es la unión etiquetada de las pruebas de identidad aceptadas.
// Solo los tipos de este paquete la implementan.
type Proof interface {
	Method() AuthMethod
	proof()
}

// PasswordProof: email (o matrícula) más contraseña.
type PasswordProof struct {
	Identifier string
	Password   string
}

// MatriculeProof: matrícula de empleado más contraseña.
type MatriculeProof struct {
	Matricule string
	Password  string
}

// QRProof: contenido leído del código QR de la credencial del empleado.
type QRProof struct {
	Payload string
}

// BiometricProof: aserción producida por un autenticador previamente registrado.
type BiometricProof struct {
	CredentialID      string
	Signature         string
	AuthenticatorData string
	ClientData        string
}

func (PasswordProof) Method() AuthMethod  { return MethodPassword }
func (MatriculeProof) Method() AuthMethod { return MethodMatricule }
func (QRProof) Method() AuthMethod        { return MethodQR }
func (BiometricProof) Method() AuthMethod { return MethodBiometric }

func (PasswordProof) proof()  {}
func (MatriculeProof) proof() {}
func (QRProof) proof()        {}
func (BiometricProof) proof() {}

// BiometricCredential vincula un identificador de credencial de plataforma a una cuenta.
type BiometricCredential struct {
	ID         string
	UserID     string
	PublicKey  string // opaco; lo interpreta el Authenticator
	Label      string
	CreatedAt  time.Time
	LastUsedAt *time.Time
}
