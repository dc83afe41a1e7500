package entity

import "time"

// Severity de una entrada de auditoría.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Valid informa si s es una severidad conocida.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError, SeverityCritical:
		return true
	}
	return false
}

// Snapshot es el estado plano de un registro en un instante.
type Snapshot map[string]any

// FieldChange describe el cambio de un campo entre dos snapshots.
type FieldChange struct {
	Before any `json:"before"`
	After  any `json:"after"`
}

// Diff es el mapa campo -> cambio. Un Diff nil significa "sin cambios".
type Diff map[string]FieldChange

// AuditEntry es un registro append-only: nunca se modifica ni se borra.
type AuditEntry struct {
	ID               string
	ActorID          string
	Module           string
	Action           string
	Details          map[string]any
	AffectedTable    string // vacío = no aplica
	AffectedRecordID string // vacío = no aplica
	Before           Snapshot
	After            Snapshot
	Diff             Diff
	SourceIP         string
	UserAgent        string
	Severity         Severity
	CreatedAt        time.Time
}

// AuditRecord es una entrada leída junto con los datos de presentación del actor.
type AuditRecord struct {
	AuditEntry
	ActorName string
	ActorRole string
}

// AuditFilter filtros de consulta del historial. Los campos vacíos no filtran.
type AuditFilter struct {
	ActorID          string
	Module           string
	Action           string
	AffectedTable    string
	AffectedRecordID string
	From             *time.Time
	To               *time.Time
	Limit            int
	Offset           int
}
