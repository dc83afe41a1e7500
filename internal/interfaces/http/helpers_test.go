package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/Expendadeur/nutrifix-sub002/internal/application/audit"
	"github.com/Expendadeur/nutrifix-sub002/internal/application/auth"
	"github.com/Expendadeur/nutrifix-sub002/internal/application/usecase"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
	"github.com/Expendadeur/nutrifix-sub002/internal/infrastructure/memory"
	"github.com/Expendadeur/nutrifix-sub002/internal/infrastructure/seed"
	apphttp "github.com/Expendadeur/nutrifix-sub002/internal/interfaces/http"
)

const (
	testJWTSecret = "http-test-jwt-secret"
	testQRSecret  = "http-test-qr-secret"
)

func testSessions() *auth.SessionIssuer {
	return auth.NewSessionIssuer(auth.SessionConfig{
		Secret:    testJWTSecret,
		Issuer:    "nutrifix-test",
		WebTTL:    time.Hour,
		MobileTTL: 24 * time.Hour,
	})
}

// issueToken firma una sesión web para un usuario ficticio con el rol y departamento dados.
func issueToken(t *testing.T, issuer *auth.SessionIssuer, id, role, dept string) string {
	t.Helper()
	s, err := issuer.Issue(&entity.User{ID: id, Role: role, DepartmentID: dept, Status: entity.StatusActive},
		entity.MethodPassword, entity.ClientWeb)
	require.NoError(t, err)
	return s.Token
}

// testServer API completa sobre adaptadores en memoria y los usuarios de demostración.
type testServer struct {
	app      *fiber.App
	store    *memory.AuditStore
	trail    *audit.Trail
	sessions *auth.SessionIssuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	demo, err := seed.DemoUsers(time.Now())
	require.NoError(t, err)

	users := memory.NewUserDirectory(demo...)
	creds := memory.NewCredentialRepository()
	store := memory.NewAuditStore(users)
	trail := audit.NewTrail(store, nil)
	sessions := testSessions()

	verifier := auth.NewVerifier(users, creds, nil, auth.QRPolicy{Secret: testQRSecret}, nil)
	authUC := auth.NewAuthUseCase(users, creds, verifier, sessions, trail, testQRSecret, nil)

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(nil)})
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:      authUC,
		DirectoryUC: usecase.NewDirectoryUseCase(users),
		Sessions:    sessions,
		Trail:       trail,
	})
	return &testServer{app: app, store: store, trail: trail, sessions: sessions}
}

// flush espera las escrituras de auditoría pendientes.
func (s *testServer) flush(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.trail.Close(ctx))
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	return doRequest(t, s.app, method, path, token, body)
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

// doHeader envía el header Authorization tal cual, sin anteponer "Bearer".
func doHeader(t *testing.T, app *fiber.App, method, path, authorization string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set(fiber.HeaderAuthorization, authorization)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}
