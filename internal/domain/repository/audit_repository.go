package repository

import (
	"context"

	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
)

// AuditStore es el almacén append-only de auditoría. Serializa sus propias escrituras.
type AuditStore interface {
	Insert(ctx context.Context, entry *entity.AuditEntry) error
	// Query devuelve la página pedida (created_at DESC) y el total que cumple los filtros.
	Query(ctx context.Context, filter entity.AuditFilter) ([]entity.AuditRecord, int, error)
}
