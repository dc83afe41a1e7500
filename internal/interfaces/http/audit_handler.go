package http

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/Expendadeur/nutrifix-sub002/internal/application/audit"
	"github.com/Expendadeur/nutrifix-sub002/internal/application/dto"
	"github.com/Expendadeur/nutrifix-sub002/internal/application/validation"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
	"github.com/Expendadeur/nutrifix-sub002/pkg/logger"
)

// AuditQuerier consulta del historial. Lo implementa *audit.Trail.
type AuditQuerier interface {
	Query(ctx context.Context, filter entity.AuditFilter) ([]entity.AuditRecord, int, error)
}

// AuditHandler consulta del historial de auditoría.
type AuditHandler struct {
	trail AuditQuerier
	log   *logger.Logger
}

// NewAuditHandler construye el handler.
func NewAuditHandler(trail AuditQuerier, log *logger.Logger) *AuditHandler {
	return &AuditHandler{trail: trail, log: log}
}

var auditQuerySchema = validation.Schema{
	"actor_id": validation.StringRule{Max: 64},
	"module":   validation.StringRule{Max: 64},
	"action":   validation.StringRule{Max: 128},
	"table":    validation.StringRule{Max: 64},
	"record":   validation.StringRule{Max: 64},
	"from":     validation.DateRule{},
	"to":       validation.DateRule{},
	"limit":    validation.NumberRule{Integer: true, Min: validation.Bound(1), Max: validation.Bound(audit.MaxLimit)},
	"offset":   validation.NumberRule{Integer: true, Min: validation.Bound(0)},
}

// parseAuditFilter valida y convierte los query params del historial.
func parseAuditFilter(c *fiber.Ctx) (entity.AuditFilter, error) {
	raw := map[string]any{}
	for k := range auditQuerySchema {
		if v := c.Query(k); v != "" {
			raw[k] = utils.CopyString(v)
		}
	}
	if err := validation.Validate(raw, auditQuerySchema); err != nil {
		return entity.AuditFilter{}, err
	}
	str := func(k string) string {
		s, _ := raw[k].(string)
		return s
	}
	f := entity.AuditFilter{
		ActorID:          str("actor_id"),
		Module:           str("module"),
		Action:           str("action"),
		AffectedTable:    str("table"),
		AffectedRecordID: str("record"),
	}
	if s := str("from"); s != "" {
		t, _ := validation.ParseDate(s)
		f.From = &t
	}
	if s := str("to"); s != "" {
		t, _ := validation.ParseDate(s)
		// Una fecha sin hora cubre el día completo.
		if len(s) == len("2006-01-02") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		f.To = &t
	}
	if s := str("limit"); s != "" {
		f.Limit, _ = strconv.Atoi(strings.TrimSpace(s))
	}
	if s := str("offset"); s != "" {
		f.Offset, _ = strconv.Atoi(strings.TrimSpace(s))
	}
	return f, nil
}

func (h *AuditHandler) list(c *fiber.Ctx, f entity.AuditFilter) error {
	records, total, err := h.trail.Query(c.UserContext(), f)
	if err != nil {
		return respondError(c, err, ErrorPolicy{}, h.log)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = audit.DefaultLimit
	}
	items := make([]dto.AuditEntryResponse, 0, len(records))
	for _, r := range records {
		items = append(items, dto.ToAuditEntryResponse(r))
	}
	return c.JSON(dto.AuditListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: min(limit, audit.MaxLimit), Offset: f.Offset, Total: total},
	})
}

// List godoc
// @Summary      Historial de auditoría
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        actor_id  query  string  false  "actor"
// @Param        module    query  string  false  "módulo"
// @Param        action    query  string  false  "acción"
// @Param        table     query  string  false  "tabla afectada"
// @Param        record    query  string  false  "registro afectado (requiere table)"
// @Param        from      query  string  false  "desde (YYYY-MM-DD o RFC 3339)"
// @Param        to        query  string  false  "hasta (YYYY-MM-DD o RFC 3339)"
// @Param        limit     query  int     false  "máximo de resultados (1-200)"
// @Param        offset    query  int     false  "desplazamiento"
// @Success      200  {object}  dto.AuditListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/audit [get]
func (h *AuditHandler) List(c *fiber.Ctx) error {
	f, err := parseAuditFilter(c)
	if err != nil {
		return respondError(c, err, ErrorPolicy{}, h.log)
	}
	return h.list(c, f)
}

// RecordHistory godoc
// @Summary      Historial de un registro
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        table     path  string  true  "tabla"
// @Param        recordId  path  string  true  "ID del registro"
// @Success      200  {object}  dto.AuditListResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/audit/{table}/{recordId} [get]
func (h *AuditHandler) RecordHistory(c *fiber.Ctx) error {
	f, err := parseAuditFilter(c)
	if err != nil {
		return respondError(c, err, ErrorPolicy{}, h.log)
	}
	f.AffectedTable = utils.CopyString(c.Params("table"))
	f.AffectedRecordID = utils.CopyString(c.Params("recordId"))
	return h.list(c, f)
}
