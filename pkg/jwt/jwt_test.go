package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/Expendadeur/nutrifix-sub002/pkg/jwt"
)

const (
	testSecret = "test-secret-key-for-unit-tests"
	testIssuer = "nutrifix-test"
)

var testSubject = pkgjwt.Subject{
	UserID:       "u-1",
	Role:         "manager",
	DepartmentID: "2",
	Method:       "password",
	Client:       "web",
}

func TestGenerateAndParse(t *testing.T) {
	iat := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	tok, claims, err := pkgjwt.Generate(testSecret, testIssuer, testSubject, iat, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tok)
	assert.NotEmpty(t, claims.ID)

	got, err := pkgjwt.Parse(testSecret, testIssuer, tok, iat.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.UserID)
	assert.Equal(t, "manager", got.Role)
	assert.Equal(t, "2", got.DepartmentID)
	assert.Equal(t, "password", got.Method)
	assert.Equal(t, iat.Add(time.Hour), got.ExpiresAt.Time)
}

func TestParse_Expired(t *testing.T) {
	iat := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	tok, _, err := pkgjwt.Generate(testSecret, testIssuer, testSubject, iat, time.Hour)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(testSecret, testIssuer, tok, iat.Add(2*time.Hour))
	assert.ErrorIs(t, err, pkgjwt.ErrExpired)
	assert.NotErrorIs(t, err, pkgjwt.ErrInvalid)
}

func TestParse_Invalid(t *testing.T) {
	iat := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	tok, _, err := pkgjwt.Generate(testSecret, testIssuer, testSubject, iat, time.Hour)
	require.NoError(t, err)
	now := iat.Add(time.Minute)

	tests := []struct {
		name   string
		secret string
		issuer string
		token  string
	}{
		{"otra firma", "otro-secreto", testIssuer, tok},
		{"otro emisor", testSecret, "otro", tok},
		{"basura", testSecret, testIssuer, "no-es-un-jwt"},
		{"truncado", testSecret, testIssuer, tok[:len(tok)-4]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pkgjwt.Parse(tt.secret, tt.issuer, tt.token, now)
			assert.ErrorIs(t, err, pkgjwt.ErrInvalid)
		})
	}
}

// Un token expirado con firma falsa es inválido, no expirado.
func TestParse_ExpiredWithBadSignatureIsInvalid(t *testing.T) {
	iat := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	tok, _, err := pkgjwt.Generate("otro-secreto", testIssuer, testSubject, iat, time.Hour)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(testSecret, testIssuer, tok, iat.Add(48*time.Hour))
	assert.ErrorIs(t, err, pkgjwt.ErrInvalid)
	assert.NotErrorIs(t, err, pkgjwt.ErrExpired)
}

func TestGenerate_Errors(t *testing.T) {
	_, _, err := pkgjwt.Generate("", testIssuer, testSubject, time.Now(), time.Hour)
	assert.Error(t, err)
	_, _, err = pkgjwt.Generate(testSecret, testIssuer, testSubject, time.Now(), 0)
	assert.Error(t, err)
}
