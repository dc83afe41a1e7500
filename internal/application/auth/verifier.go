package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Expendadeur/nutrifix-sub002/internal/domain"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/repository"
	"github.com/Expendadeur/nutrifix-sub002/pkg/logger"
	"github.com/Expendadeur/nutrifix-sub002/pkg/qrcode"
)

// qrClockSkew tolerancia para un QR emitido "en el futuro" por desfase de relojes.
const qrClockSkew = time.Minute

// QRPolicy firma y frescura de los QR aceptados.
type QRPolicy struct {
	Secret string
	MaxAge time.Duration         // 0 = sin ventana
	Nonces repository.NonceStore // nil = reutilizable
}

// Verifier valida cada tipo de prueba contra el usuario del directorio.
// Un resultado (user, nil) equivale a Valid(user); ante error el usuario es nil.
type Verifier struct {
	users repository.UserDirectory
	creds repository.CredentialRepository
	authn repository.Authenticator
	qr    QRPolicy
	log   *logger.Logger
	now   func() time.Time
}

// NewVerifier construye el verificador. creds y authn pueden ser nil si no hay biometría.
func NewVerifier(users repository.UserDirectory, creds repository.CredentialRepository, authn repository.Authenticator, qr QRPolicy, log *logger.Logger) *Verifier {
	if log == nil {
		log = logger.Nop()
	}
	return &Verifier{users: users, creds: creds, authn: authn, qr: qr, log: log.Component("verifier"), now: time.Now}
}

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// burnCompare iguala el coste de los caminos sin hash válido al de una comparación real.
func burnCompare(plaintext string) {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("nutrifix-timing-equalizer"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plaintext))
}

// VerifyPassword compara plaintext con el hash del usuario ya resuelto.
// user nil -> ErrAccountNotFound; cuenta desactivada -> ErrAccountDisabled;
// hash distinto -> ErrInvalidCredentials.
func (v *Verifier) VerifyPassword(user *entity.User, plaintext string) (*entity.User, error) {
	if user == nil {
		burnCompare(plaintext)
		return nil, domain.ErrAccountNotFound
	}
	if !user.IsActive() {
		burnCompare(plaintext)
		return nil, domain.ErrAccountDisabled
	}
	if user.PasswordHash == "" {
		burnCompare(plaintext)
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(plaintext)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// VerifyQR decodifica el QR, resuelve el usuario y aplica la política de frescura y uso único.
func (v *Verifier) VerifyQR(ctx context.Context, payload string) (*entity.User, error) {
	p, err := qrcode.Decode(v.qr.Secret, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err)
	}
	user, err := v.users.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("buscar usuario del QR: %w", err)
	}
	if user == nil {
		return nil, domain.ErrAccountNotFound
	}
	if !user.IsActive() {
		return nil, domain.ErrAccountDisabled
	}
	now := v.now()
	if p.IssuedAt.After(now.Add(qrClockSkew)) {
		return nil, fmt.Errorf("%w: QR emitido en el futuro", domain.ErrInvalidCredentials)
	}
	if v.qr.MaxAge > 0 && now.Sub(p.IssuedAt) > v.qr.MaxAge {
		return nil, fmt.Errorf("%w: QR caducado", domain.ErrInvalidCredentials)
	}
	if v.qr.Nonces != nil {
		if p.Nonce == "" {
			return nil, fmt.Errorf("%w: QR sin nonce", domain.ErrInvalidCredentials)
		}
		fresh, err := v.qr.Nonces.Consume(ctx, p.Nonce, v.qr.MaxAge)
		if err != nil {
			return nil, fmt.Errorf("consumir nonce QR: %w", err)
		}
		if !fresh {
			return nil, fmt.Errorf("%w: QR ya utilizado", domain.ErrInvalidCredentials)
		}
	}
	return user, nil
}

// VerifyBiometric exige una credencial registrada y delega la verificación criptográfica
// de la aserción en el Authenticator de plataforma.
func (v *Verifier) VerifyBiometric(ctx context.Context, storedCredentialID string, assertion entity.BiometricProof) (*entity.User, error) {
	if v.creds == nil || v.authn == nil || storedCredentialID == "" {
		return nil, domain.ErrInvalidCredentials
	}
	cred, err := v.creds.FindByID(ctx, storedCredentialID)
	if err != nil {
		return nil, fmt.Errorf("buscar credencial biométrica: %w", err)
	}
	if cred == nil {
		return nil, fmt.Errorf("%w: credencial no registrada", domain.ErrInvalidCredentials)
	}
	user, err := v.users.FindByID(ctx, cred.UserID)
	if err != nil {
		return nil, fmt.Errorf("buscar usuario de la credencial: %w", err)
	}
	if user == nil {
		return nil, domain.ErrAccountNotFound
	}
	if !user.IsActive() {
		return nil, domain.ErrAccountDisabled
	}
	ok, err := v.authn.Verify(ctx, cred, assertion)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return nil, err
		}
		return nil, fmt.Errorf("verificar aserción: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: aserción rechazada", domain.ErrInvalidCredentials)
	}
	// El login sigue adelante aunque no se pueda anotar el último uso.
	if err := v.creds.Touch(ctx, cred.ID, v.now().UTC()); err != nil {
		v.log.Warn().Err(err).Str("credential_id", cred.ID).Str("user_id", user.ID).Msg("no se pudo registrar el uso de la credencial")
	}
	return user, nil
}
