package dto

import (
	"time"

	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
)

// AuditEntryResponse entrada del historial con los datos del actor.
type AuditEntryResponse struct {
	ID               string          `json:"id"`
	ActorID          string          `json:"actor_id"`
	ActorName        string          `json:"actor_name,omitempty"`
	ActorRole        string          `json:"actor_role,omitempty"`
	Module           string          `json:"module"`
	Action           string          `json:"action"`
	Details          map[string]any  `json:"details,omitempty"`
	AffectedTable    string          `json:"affected_table,omitempty"`
	AffectedRecordID string          `json:"affected_record_id,omitempty"`
	Before           entity.Snapshot `json:"before,omitempty"`
	After            entity.Snapshot `json:"after,omitempty"`
	Diff             entity.Diff     `json:"diff,omitempty"`
	SourceIP         string          `json:"source_ip,omitempty"`
	UserAgent        string          `json:"user_agent,omitempty"`
	Severity         string          `json:"severity"`
	CreatedAt        time.Time       `json:"created_at"`
}

// AuditListResponse página del historial.
type AuditListResponse struct {
	Items []AuditEntryResponse `json:"items"`
	Page  PageResponse         `json:"page"`
}

// ToAuditEntryResponse proyecta un registro leído.
func ToAuditEntryResponse(r entity.AuditRecord) AuditEntryResponse {
	return AuditEntryResponse{
		ID:               r.ID,
		ActorID:          r.ActorID,
		ActorName:        r.ActorName,
		ActorRole:        r.ActorRole,
		Module:           r.Module,
		Action:           r.Action,
		Details:          r.Details,
		AffectedTable:    r.AffectedTable,
		AffectedRecordID: r.AffectedRecordID,
		Before:           r.Before,
		After:            r.After,
		Diff:             r.Diff,
		SourceIP:         r.SourceIP,
		UserAgent:        r.UserAgent,
		Severity:         string(r.Severity),
		CreatedAt:        r.CreatedAt,
	}
}
