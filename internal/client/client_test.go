package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Expendadeur/nutrifix-sub002/internal/application/dto"
)

func sampleSession() StoredSession {
	return StoredSession{
		APIURL:    "http://localhost:8080",
		Token:     "tok",
		ExpiresAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		Method:    "matricule",
		UserID:    "u-1",
		Name:      "Eric",
		Role:      "chauffeur",
	}
}

func TestFileStore_RoundTripAndClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s := NewFileStore(path)

	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, s.Save(sampleSession()))
	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, sampleSession(), got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// Sin temporales huérfanos junto al documento.
	files, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, files, 1)

	require.NoError(t, s.Clear())
	_, err = s.Load()
	assert.ErrorIs(t, err, ErrNoSession)
	assert.NoError(t, s.Clear(), "borrar dos veces no falla")
}

func TestFileStore_SaveReplacesWholeDocument(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, s.Save(sampleSession()))

	next := StoredSession{Token: "tok-2", UserID: "u-2"}
	require.NoError(t, s.Save(next))
	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, next, got, "no quedan campos de la sesión anterior")
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{no-json"), 0o600))
	_, err := NewFileStore(path).Load()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
}

func TestMemoryStore(t *testing.T) {
	var s SessionStore = NewMemoryStore()
	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNoSession)
	require.NoError(t, s.Save(sampleSession()))
	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)
	require.NoError(t, s.Clear())
	_, err = s.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStoredSession_Expired(t *testing.T) {
	s := sampleSession()
	assert.False(t, s.Expired(s.ExpiresAt.Add(-time.Second)))
	assert.True(t, s.Expired(s.ExpiresAt))
	assert.False(t, StoredSession{}.Expired(time.Now()), "sin expiración conocida")
}

func TestClient_LoginAndMe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/auth/login":
			var in dto.LoginRequest
			_ = json.NewDecoder(r.Body).Decode(&in)
			if in.Password != "Secret123" {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"})
				return
			}
			_ = json.NewEncoder(w).Encode(dto.LoginResponse{Success: true, Token: "tok", Method: "matricule",
				User: dto.UserResponse{ID: "u-1", Role: "chauffeur"}})
		case "/api/auth/me":
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Code: "TOKEN_EXPIRED", Message: "expirado"})
				return
			}
			_ = json.NewEncoder(w).Encode(dto.UserResponse{ID: "u-1", Name: "Eric"})
		case "/api/audit":
			assert.Equal(t, "auth", r.URL.Query().Get("module"))
			_ = json.NewEncoder(w).Encode(dto.AuditListResponse{Page: dto.PageResponse{Total: 0}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c := New(srv.URL+"/", time.Second)

	_, err := c.Login(ctx, dto.LoginRequest{Matricule: "CH001", Password: "nope"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)

	resp, err := c.Login(ctx, dto.LoginRequest{Matricule: "CH001", Password: "Secret123"})
	require.NoError(t, err)
	sess := SessionFrom(srv.URL, resp)
	assert.Equal(t, "chauffeur", sess.Role)

	me, err := c.WithToken(sess.Token).Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Eric", me.Name)

	_, err = c.WithToken("old").Me(ctx)
	assert.True(t, IsExpired(err))

	_, err = c.WithToken("tok").AuditList(ctx, map[string][]string{"module": {"auth"}})
	require.NoError(t, err)
}
