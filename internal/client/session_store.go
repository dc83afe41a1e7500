package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrNoSession no hay sesión guardada.
var ErrNoSession = errors.New("client: no hay sesión guardada")

// StoredSession lo que el cliente persiste entre ejecuciones: token y perfil mínimo.
type StoredSession struct {
	APIURL       string    `json:"api_url"`
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Method       string    `json:"method"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	DepartmentID string    `json:"department_id,omitempty"`
}

// Expired informa si la ventana de la sesión ya pasó.
func (s StoredSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SessionStore persistencia atómica de la sesión del cliente. Todo se guarda y se
// borra como una unidad: nunca queda un token sin su perfil ni al revés.
type SessionStore interface {
	Save(s StoredSession) error
	Load() (StoredSession, error)
	Clear() error
}

// FileStore guarda la sesión en un único documento JSON.
type FileStore struct {
	path string
}

// NewFileStore construye el almacén sobre path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultSessionPath ubicación por defecto dentro del directorio de configuración del usuario.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("client: directorio de configuración: %w", err)
	}
	return filepath.Join(dir, "nutrifix", "session.json"), nil
}

// Path ruta del documento.
func (f *FileStore) Path() string { return f.path }

// Save escribe en un temporal del mismo directorio y lo renombra sobre el destino.
func (f *FileStore) Save(s StoredSession) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("client: serializar sesión: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("client: crear %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("client: temporal: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op tras el rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("client: escribir sesión: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("client: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("client: cerrar temporal: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("client: permisos: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("client: reemplazar sesión: %w", err)
	}
	return nil
}

// Load lee la sesión. Devuelve ErrNoSession si no existe.
func (f *FileStore) Load() (StoredSession, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return StoredSession{}, ErrNoSession
	}
	if err != nil {
		return StoredSession{}, fmt.Errorf("client: leer sesión: %w", err)
	}
	var s StoredSession
	if err := json.Unmarshal(data, &s); err != nil {
		return StoredSession{}, fmt.Errorf("client: sesión corrupta: %w", err)
	}
	if s.Token == "" {
		return StoredSession{}, ErrNoSession
	}
	return s, nil
}

// Clear borra el documento. Borrar una sesión inexistente no es error.
func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("client: borrar sesión: %w", err)
	}
	return nil
}

// MemoryStore almacén en memoria.
type MemoryStore struct {
	mu sync.Mutex
	s  *StoredSession
}

// NewMemoryStore construye un almacén vacío.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Save(s StoredSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = &s
	return nil
}

func (m *MemoryStore) Load() (StoredSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		return StoredSession{}, ErrNoSession
	}
	return *m.s, nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = nil
	return nil
}
