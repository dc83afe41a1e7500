package auth

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Expendadeur/nutrifix-sub002/internal/domain"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
	"github.com/Expendadeur/nutrifix-sub002/internal/infrastructure/memory"
	"github.com/Expendadeur/nutrifix-sub002/pkg/logger"
	"github.com/Expendadeur/nutrifix-sub002/pkg/qrcode"
)

func newTestVerifier(t *testing.T, qr QRPolicy) (*Verifier, *memory.UserDirectory, *memory.CredentialRepository, *stubAuthenticator) {
	t.Helper()
	users := fixtureUsers(t)
	creds := memory.NewCredentialRepository()
	authn := &stubAuthenticator{accept: true}
	if qr.Secret == "" {
		qr.Secret = testQRSecret
	}
	v := NewVerifier(users, creds, authn, qr, nil)
	v.now = func() time.Time { return testNow }
	return v, users, creds, authn
}

func TestVerifyPassword(t *testing.T) {
	v, users, _, _ := newTestVerifier(t, QRPolicy{})
	ctx := context.Background()
	chauffeur, _ := users.FindByMatricule(ctx, "CH001")

	got, err := v.VerifyPassword(chauffeur, testPassword)
	require.NoError(t, err)
	assert.Equal(t, "u-chauffeur", got.ID)

	_, err = v.VerifyPassword(chauffeur, "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = v.VerifyPassword(nil, testPassword)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	noHash := *chauffeur
	noHash.PasswordHash = ""
	_, err = v.VerifyPassword(&noHash, "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

// Una cuenta desactivada recibe ErrAccountDisabled con cualquier método, aunque la prueba sea válida.
func TestDisabledAccount_AllMethods(t *testing.T) {
	v, users, creds, authn := newTestVerifier(t, QRPolicy{})
	ctx := context.Background()
	off, _ := users.FindByID(ctx, "u-off")

	_, err := v.VerifyPassword(off, testPassword)
	assert.ErrorIs(t, err, domain.ErrAccountDisabled, "password")

	_, err = v.VerifyPassword(off, "wrong")
	assert.ErrorIs(t, err, domain.ErrAccountDisabled, "password incorrecta")

	payload, _, err := qrcode.Encode(testQRSecret, off.ID, testNow)
	require.NoError(t, err)
	_, err = v.VerifyQR(ctx, payload)
	assert.ErrorIs(t, err, domain.ErrAccountDisabled, "qr")

	require.NoError(t, creds.Register(ctx, &entity.BiometricCredential{ID: "cred-off", UserID: off.ID, PublicKey: "pk"}))
	_, err = v.VerifyBiometric(ctx, "cred-off", entity.BiometricProof{CredentialID: "cred-off", Signature: "s", AuthenticatorData: "a"})
	assert.ErrorIs(t, err, domain.ErrAccountDisabled, "biometric")
	assert.Zero(t, authn.calls, "no se verifica la aserción de una cuenta desactivada")
}

func TestVerifyQR(t *testing.T) {
	ctx := context.Background()

	t.Run("válido sin ventana", func(t *testing.T) {
		v, _, _, _ := newTestVerifier(t, QRPolicy{})
		payload, _, err := qrcode.Encode(testQRSecret, "u-chauffeur", testNow.Add(-365*24*time.Hour))
		require.NoError(t, err)
		u, err := v.VerifyQR(ctx, payload)
		require.NoError(t, err)
		assert.Equal(t, "u-chauffeur", u.ID)
	})

	t.Run("caducado", func(t *testing.T) {
		v, _, _, _ := newTestVerifier(t, QRPolicy{MaxAge: time.Hour})
		payload, _, err := qrcode.Encode(testQRSecret, "u-chauffeur", testNow.Add(-2*time.Hour))
		require.NoError(t, err)
		_, err = v.VerifyQR(ctx, payload)
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("emitido en el futuro", func(t *testing.T) {
		v, _, _, _ := newTestVerifier(t, QRPolicy{})
		payload, _, err := qrcode.Encode(testQRSecret, "u-chauffeur", testNow.Add(10*time.Minute))
		require.NoError(t, err)
		_, err = v.VerifyQR(ctx, payload)
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

		skewed, _, err := qrcode.Encode(testQRSecret, "u-chauffeur", testNow.Add(30*time.Second))
		require.NoError(t, err)
		_, err = v.VerifyQR(ctx, skewed)
		assert.NoError(t, err, "desfase de reloj tolerado")
	})

	t.Run("uso único", func(t *testing.T) {
		v, _, _, _ := newTestVerifier(t, QRPolicy{MaxAge: time.Hour, Nonces: memory.NewNonceStore()})
		payload, _, err := qrcode.Encode(testQRSecret, "u-chauffeur", testNow)
		require.NoError(t, err)
		_, err = v.VerifyQR(ctx, payload)
		require.NoError(t, err)
		_, err = v.VerifyQR(ctx, payload)
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials, "replay")
	})

	t.Run("firma ajena", func(t *testing.T) {
		v, _, _, _ := newTestVerifier(t, QRPolicy{})
		payload, _, err := qrcode.Encode("otro-secreto", "u-chauffeur", testNow)
		require.NoError(t, err)
		_, err = v.VerifyQR(ctx, payload)
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("usuario inexistente", func(t *testing.T) {
		v, _, _, _ := newTestVerifier(t, QRPolicy{})
		payload, _, err := qrcode.Encode(testQRSecret, "u-ghost", testNow)
		require.NoError(t, err)
		_, err = v.VerifyQR(ctx, payload)
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	})
}

func TestVerifyBiometric(t *testing.T) {
	ctx := context.Background()
	assertion := entity.BiometricProof{CredentialID: "cred-1", Signature: "sig", AuthenticatorData: "ad"}

	v, _, creds, authn := newTestVerifier(t, QRPolicy{})
	_, err := v.VerifyBiometric(ctx, "cred-1", assertion)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials, "credencial no registrada")

	require.NoError(t, creds.Register(ctx, &entity.BiometricCredential{ID: "cred-1", UserID: "u-manager-2", PublicKey: "pk"}))
	u, err := v.VerifyBiometric(ctx, "cred-1", assertion)
	require.NoError(t, err)
	assert.Equal(t, "u-manager-2", u.ID)
	stored, _ := creds.FindByID(ctx, "cred-1")
	require.NotNil(t, stored.LastUsedAt)
	assert.Equal(t, testNow, *stored.LastUsedAt)

	authn.accept = false
	_, err = v.VerifyBiometric(ctx, "cred-1", assertion)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	authn.err = errors.New("servicio caído")
	_, err = v.VerifyBiometric(ctx, "cred-1", assertion)
	assert.Error(t, err)
	assert.False(t, domain.IsAuthFailure(err), "un fallo de infraestructura no es un fallo de credenciales")
}

// touchFails delega en el repositorio en memoria salvo Touch, que siempre falla.
type touchFails struct {
	*memory.CredentialRepository
}

func (touchFails) Touch(context.Context, string, time.Time) error {
	return errors.New("conexión perdida")
}

func TestVerifyBiometric_TouchFailureIsLoggedNotFatal(t *testing.T) {
	ctx := context.Background()
	creds := memory.NewCredentialRepository()
	require.NoError(t, creds.Register(ctx, &entity.BiometricCredential{ID: "cred-1", UserID: "u-manager-2", PublicKey: "pk"}))

	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: "warn", Output: &buf})
	v := NewVerifier(fixtureUsers(t), touchFails{creds}, &stubAuthenticator{accept: true}, QRPolicy{Secret: testQRSecret}, log)

	u, err := v.VerifyBiometric(ctx, "cred-1", entity.BiometricProof{CredentialID: "cred-1", Signature: "s", AuthenticatorData: "a"})
	require.NoError(t, err)
	assert.Equal(t, "u-manager-2", u.ID)
	assert.Contains(t, buf.String(), "conexión perdida")
	assert.Contains(t, buf.String(), `"credential_id":"cred-1"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestVerifyBiometric_NotConfigured(t *testing.T) {
	v := NewVerifier(fixtureUsers(t), nil, nil, QRPolicy{Secret: testQRSecret}, nil)
	_, err := v.VerifyBiometric(context.Background(), "cred-1", entity.BiometricProof{})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestNormalizeIdentifier(t *testing.T) {
	assert.Equal(t, "jean.dupont@ferme.bi", NormalizeIdentifier("  Jean.Dupont@Ferme.BI "))
	assert.Equal(t, "ch001", NormalizeIdentifier("CH001"))
	assert.Equal(t, "strasse", NormalizeIdentifier("STRASSE"))
}
