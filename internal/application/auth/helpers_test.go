package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
	"github.com/Expendadeur/nutrifix-sub002/internal/infrastructure/memory"
)

const (
	testPassword  = "Secret123"
	testJWTSecret = "jwt-test-secret"
	testQRSecret  = "qr-test-secret"
)

var testNow = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

func hashed(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

// fixtureUsers chauffeur activo, manager del depto 2, manager del depto 5, admin y un
// empleado desactivado, todos con testPassword.
func fixtureUsers(t *testing.T) *memory.UserDirectory {
	t.Helper()
	h := hashed(t, testPassword)
	return memory.NewUserDirectory(
		&entity.User{ID: "u-chauffeur", Matricule: "CH001", Name: "Eric", Role: entity.RoleChauffeur, DepartmentID: "2", Status: entity.StatusActive, PasswordHash: h},
		&entity.User{ID: "u-manager-2", Email: "manager2@nutrifix.bi", Matricule: "MGR002", Name: "Jean", Role: entity.RoleManager, DepartmentID: "2", Status: entity.StatusActive, PasswordHash: h},
		&entity.User{ID: "u-manager-5", Email: "manager5@nutrifix.bi", Name: "Claudine", Role: entity.RoleManager, DepartmentID: "5", Status: entity.StatusActive, PasswordHash: h},
		&entity.User{ID: "u-admin", Email: "admin@nutrifix.bi", Name: "Aline", Role: entity.RoleAdmin, Status: entity.StatusActive, PasswordHash: h},
		&entity.User{ID: "u-off", Matricule: "EMP099", Email: "off@nutrifix.bi", Name: "Ancien", Role: entity.RoleEmploye, DepartmentID: "2", Status: entity.StatusDisabled, PasswordHash: h},
	)
}

// stubAuthenticator acepta o rechaza todas las aserciones.
type stubAuthenticator struct {
	accept bool
	err    error
	calls  int
}

func (s *stubAuthenticator) Verify(context.Context, *entity.BiometricCredential, entity.BiometricProof) (bool, error) {
	s.calls++
	return s.accept, s.err
}

// recorder guarda las entradas despachadas de forma síncrona.
type recorder struct {
	mu      sync.Mutex
	entries []entity.AuditEntry
}

func (r *recorder) Dispatch(e entity.AuditEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *recorder) all() []entity.AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.AuditEntry(nil), r.entries...)
}

func testIssuer() *SessionIssuer {
	return NewSessionIssuer(SessionConfig{
		Secret:    testJWTSecret,
		Issuer:    "nutrifix-test",
		WebTTL:    24 * time.Hour,
		MobileTTL: 7 * 24 * time.Hour,
	}).WithClock(func() time.Time { return testNow })
}

type fixture struct {
	users *memory.UserDirectory
	creds *memory.CredentialRepository
	authn *stubAuthenticator
	audit *recorder
	uc    *AuthUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users: fixtureUsers(t),
		creds: memory.NewCredentialRepository(),
		authn: &stubAuthenticator{accept: true},
		audit: &recorder{},
	}
	v := NewVerifier(f.users, f.creds, f.authn, QRPolicy{Secret: testQRSecret}, nil)
	v.now = func() time.Time { return testNow }
	f.uc = NewAuthUseCase(f.users, f.creds, v, testIssuer(), f.audit, testQRSecret, nil)
	f.uc.now = func() time.Time { return testNow }
	return f
}
