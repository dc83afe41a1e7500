package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/repository"
)

var _ repository.AuditStore = (*AuditStore)(nil)

// AuditStore almacén append-only en memoria. Si se le da un directorio,
// Query completa nombre y rol del actor.
type AuditStore struct {
	mu      sync.RWMutex
	entries []entity.AuditEntry
	users   repository.UserDirectory
}

// NewAuditStore construye el almacén. users puede ser nil.
func NewAuditStore(users repository.UserDirectory) *AuditStore {
	return &AuditStore{users: users}
}

// Insert añade una entrada.
func (s *AuditStore) Insert(_ context.Context, e *entity.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *e)
	return nil
}

// Entries devuelve una copia de todas las entradas en orden de inserción.
func (s *AuditStore) Entries() []entity.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.AuditEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Query filtra, ordena por created_at DESC y pagina.
func (s *AuditStore) Query(ctx context.Context, f entity.AuditFilter) ([]entity.AuditRecord, int, error) {
	var matched []entity.AuditEntry
	for _, e := range s.Entries() {
		if matches(e, f) {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := len(matched)
	matched = page(matched, f.Limit, f.Offset)

	out := make([]entity.AuditRecord, 0, len(matched))
	for _, e := range matched {
		rec := entity.AuditRecord{AuditEntry: e}
		if s.users != nil {
			u, err := s.users.FindByID(ctx, e.ActorID)
			if err != nil {
				return nil, 0, err
			}
			if u != nil {
				rec.ActorName, rec.ActorRole = u.Name, u.Role
			}
		}
		out = append(out, rec)
	}
	return out, total, nil
}

func matches(e entity.AuditEntry, f entity.AuditFilter) bool {
	switch {
	case f.ActorID != "" && e.ActorID != f.ActorID,
		f.Module != "" && e.Module != f.Module,
		f.Action != "" && e.Action != f.Action,
		f.AffectedTable != "" && e.AffectedTable != f.AffectedTable,
		f.AffectedRecordID != "" && e.AffectedRecordID != f.AffectedRecordID,
		f.From != nil && e.CreatedAt.Before(*f.From),
		f.To != nil && e.CreatedAt.After(*f.To):
		return false
	}
	return true
}
