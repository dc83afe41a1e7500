package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Expendadeur/nutrifix-sub002/internal/domain"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/repository"
)

var (
	_ repository.CredentialRepository = (*CredentialRepository)(nil)
	_ repository.NonceStore           = (*NonceStore)(nil)
)

// CredentialRepository credenciales biométricas en memoria.
type CredentialRepository struct {
	mu    sync.RWMutex
	creds map[string]entity.BiometricCredential
}

// NewCredentialRepository construye el repositorio vacío.
func NewCredentialRepository() *CredentialRepository {
	return &CredentialRepository{creds: map[string]entity.BiometricCredential{}}
}

// Register vincula la credencial; un ID repetido es ErrCredentialDuplicate.
func (r *CredentialRepository) Register(_ context.Context, cred *entity.BiometricCredential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.creds[cred.ID]; ok {
		return domain.ErrCredentialDuplicate
	}
	r.creds[cred.ID] = *cred
	return nil
}

// FindByID devuelve (nil, nil) si no existe.
func (r *CredentialRepository) FindByID(_ context.Context, id string) (*entity.BiometricCredential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.creds[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// Touch actualiza la fecha de último uso.
func (r *CredentialRepository) Touch(_ context.Context, id string, usedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.creds[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.LastUsedAt = &usedAt
	r.creds[id] = c
	return nil
}

// NonceStore conjunto de nonces consumidos, con caducidad.
type NonceStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

// NewNonceStore construye el almacén vacío.
func NewNonceStore() *NonceStore {
	return &NonceStore{seen: map[string]time.Time{}, now: time.Now}
}

// Consume devuelve true solo la primera vez que se presenta nonce dentro de ttl.
func (s *NonceStore) Consume(_ context.Context, nonce string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if exp, ok := s.seen[nonce]; ok && (exp.IsZero() || now.Before(exp)) {
		return false, nil
	}
	var exp time.Time
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	s.seen[nonce] = exp
	return true, nil
}
