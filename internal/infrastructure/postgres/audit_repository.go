package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/repository"
)

var _ repository.AuditStore = (*AuditRepo)(nil)

// AuditRepo tabla append-only audit_logs. No hay UPDATE ni DELETE.
type AuditRepo struct {
	db DBTX
}

// NewAuditRepository construye el adaptador.
func NewAuditRepository(db DBTX) *AuditRepo {
	return &AuditRepo{db: db}
}

// Insert persiste la entrada con snapshots y diff en JSONB.
func (r *AuditRepo) Insert(ctx context.Context, e *entity.AuditEntry) error {
	details, err := jsonb(e.Details)
	if err != nil {
		return fmt.Errorf("serializar details: %w", err)
	}
	before, err := jsonb(e.Before)
	if err != nil {
		return fmt.Errorf("serializar before: %w", err)
	}
	after, err := jsonb(e.After)
	if err != nil {
		return fmt.Errorf("serializar after: %w", err)
	}
	diff, err := jsonb(e.Diff)
	if err != nil {
		return fmt.Errorf("serializar diff: %w", err)
	}
	query := `
		INSERT INTO audit_logs (id, actor_id, module, action, details, affected_table, affected_record_id,
			before_data, after_data, diff, source_ip, user_agent, severity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err = r.db.Exec(ctx, query,
		e.ID, e.ActorID, e.Module, e.Action, details, nullable(e.AffectedTable), nullable(e.AffectedRecordID),
		before, after, diff, nullable(e.SourceIP), nullable(e.UserAgent), string(e.Severity), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// where construye la cláusula de filtros. Los parámetros empiezan en $1.
func where(f entity.AuditFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.ActorID != "" {
		add("a.actor_id = $%d", f.ActorID)
	}
	if f.Module != "" {
		add("a.module = $%d", f.Module)
	}
	if f.Action != "" {
		add("a.action = $%d", f.Action)
	}
	if f.AffectedTable != "" {
		add("a.affected_table = $%d", f.AffectedTable)
	}
	if f.AffectedRecordID != "" {
		add("a.affected_record_id = $%d", f.AffectedRecordID)
	}
	if f.From != nil {
		add("a.created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("a.created_at <= $%d", *f.To)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Query devuelve la página pedida ordenada por created_at DESC con nombre y rol del actor.
func (r *AuditRepo) Query(ctx context.Context, f entity.AuditFilter) ([]entity.AuditRecord, int, error) {
	cond, args := where(f)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM audit_logs a`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	query := `
		SELECT a.id, a.actor_id, a.module, a.action, a.details, coalesce(a.affected_table, ''),
			coalesce(a.affected_record_id, ''), a.before_data, a.after_data, a.diff,
			coalesce(a.source_ip, ''), coalesce(a.user_agent, ''), a.severity, a.created_at,
			coalesce(u.name, ''), coalesce(u.role, '')
		FROM audit_logs a
		LEFT JOIN users u ON u.id = a.actor_id` + cond
	pos := len(args) + 1
	query += fmt.Sprintf(" ORDER BY a.created_at DESC, a.id LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var list []entity.AuditRecord
	for rows.Next() {
		var (
			rec                          entity.AuditRecord
			details, before, after, diff []byte
			severity                     string
		)
		err := rows.Scan(&rec.ID, &rec.ActorID, &rec.Module, &rec.Action, &details, &rec.AffectedTable,
			&rec.AffectedRecordID, &before, &after, &diff, &rec.SourceIP, &rec.UserAgent, &severity,
			&rec.CreatedAt, &rec.ActorName, &rec.ActorRole)
		if err != nil {
			return nil, 0, fmt.Errorf("scan audit log: %w", err)
		}
		rec.Severity = entity.Severity(severity)
		for _, col := range []struct {
			raw []byte
			dst any
		}{{details, &rec.Details}, {before, &rec.Before}, {after, &rec.After}, {diff, &rec.Diff}} {
			if err := fromJSONB(col.raw, col.dst); err != nil {
				return nil, 0, fmt.Errorf("decode audit log %s: %w", rec.ID, err)
			}
		}
		list = append(list, rec)
	}
	return list, total, rows.Err()
}
