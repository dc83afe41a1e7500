package repository

import (
	"context"
	"time"

	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
)

// CredentialRepository persiste los vínculos credencial biométrica -> cuenta.
type CredentialRepository interface {
	Register(ctx context.Context, cred *entity.BiometricCredential) error
	// FindByID devuelve (nil, nil) si la credencial no fue registrada.
	FindByID(ctx context.Context, credentialID string) (*entity.BiometricCredential, error)
	Touch(ctx context.Context, credentialID string, usedAt time.Time) error
}

// Authenticator es la capacidad de plataforma (WebAuthn o biometría móvil) que verifica
// criptográficamente una aserción. Este núcleo nunca implementa esa verificación.
type Authenticator interface {
	Verify(ctx context.Context, cred *entity.BiometricCredential, assertion entity.BiometricProof) (bool, error)
}

// NonceStore consume nonces de un solo uso (códigos QR).
type NonceStore interface {
	// Consume devuelve true la primera vez que se presenta nonce y false después.
	Consume(ctx context.Context, nonce string, ttl time.Duration) (bool, error)
}
