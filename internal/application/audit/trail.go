package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Expendadeur/nutrifix-sub002/internal/domain"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/repository"
	"github.com/Expendadeur/nutrifix-sub002/internal/infrastructure/metrics"
	"github.com/Expendadeur/nutrifix-sub002/pkg/logger"
)

// Límites de paginación del historial.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Result es el resultado blando de una escritura: Record nunca devuelve error ni hace panic.
type Result struct {
	OK  bool
	ID  string
	Err error
}

// Trail registra y consulta el historial de auditoría.
type Trail struct {
	store           repository.AuditStore
	log             *logger.Logger
	now             func() time.Time
	dispatchTimeout time.Duration
	wg              sync.WaitGroup
}

// Option configura un Trail.
type Option func(*Trail)

// WithClock fija el reloj usado para created_at.
func WithClock(now func() time.Time) Option {
	return func(t *Trail) { t.now = now }
}

// WithDispatchTimeout limita cada escritura despachada en segundo plano.
func WithDispatchTimeout(d time.Duration) Option {
	return func(t *Trail) {
		if d > 0 {
			t.dispatchTimeout = d
		}
	}
}

// NewTrail construye el registro de auditoría sobre store.
func NewTrail(store repository.AuditStore, log *logger.Logger, opts ...Option) *Trail {
	if log == nil {
		log = logger.Nop()
	}
	t := &Trail{
		store:           store,
		log:             log.Component("audit"),
		now:             time.Now,
		dispatchTimeout: 5 * time.Second,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Record valida, calcula el diff si hay before y after, y persiste la entrada.
// Un fallo del almacén se registra en logs y se devuelve como Result{OK:false};
// la operación de negocio que originó la entrada nunca se ve afectada.
func (t *Trail) Record(ctx context.Context, entry entity.AuditEntry) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = t.fail(entry, fmt.Errorf("%w: panic: %v", domain.ErrAuditWriteFailure, r))
		}
	}()

	if err := validateEntry(entry); err != nil {
		metrics.IncAuditWrite("invalid")
		t.log.Warn().Err(err).Str("module", entry.Module).Str("action", entry.Action).Msg("entrada de auditoría rechazada")
		return Result{Err: err}
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = t.now().UTC()
	}
	if entry.Severity == "" {
		entry.Severity = entity.SeverityInfo
	}
	entry.Diff = nil
	if entry.Before != nil && entry.After != nil {
		entry.Diff = ComputeDiff(entry.Before, entry.After)
	}
	entry.Details = Redact(entry.Details)

	if t.store == nil {
		return t.fail(entry, fmt.Errorf("%w: almacén no configurado", domain.ErrAuditWriteFailure))
	}
	if err := t.store.Insert(ctx, &entry); err != nil {
		return t.fail(entry, fmt.Errorf("%w: %v", domain.ErrAuditWriteFailure, err))
	}
	metrics.IncAuditWrite("ok")
	return Result{OK: true, ID: entry.ID}
}

func (t *Trail) fail(entry entity.AuditEntry, err error) Result {
	metrics.IncAuditWrite("failed")
	t.log.Error().Err(err).
		Str("actor_id", entry.ActorID).
		Str("module", entry.Module).
		Str("action", entry.Action).
		Msg("no se pudo persistir la entrada de auditoría")
	return Result{Err: err}
}

// Dispatch escribe la entrada en segundo plano sin bloquear a quien llama.
func (t *Trail) Dispatch(entry entity.AuditEntry) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), t.dispatchTimeout)
		defer cancel()
		t.Record(ctx, entry)
	}()
}

// Close espera a que terminen las escrituras despachadas o a que ctx expire.
func (t *Trail) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("audit: escrituras pendientes al cerrar: %w", ctx.Err())
	}
}

// Query devuelve el historial filtrado, más reciente primero, y el total.
func (t *Trail) Query(ctx context.Context, filter entity.AuditFilter) ([]entity.AuditRecord, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultLimit
	}
	if filter.Limit > MaxLimit {
		filter.Limit = MaxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, 0, fmt.Errorf("%w: rango de fechas invertido", domain.ErrInvalidInput)
	}
	if filter.AffectedRecordID != "" && filter.AffectedTable == "" {
		return nil, 0, fmt.Errorf("%w: el registro requiere la tabla", domain.ErrInvalidInput)
	}
	if t.store == nil {
		return nil, 0, fmt.Errorf("audit: almacén no configurado")
	}
	return t.store.Query(ctx, filter)
}

func validateEntry(e entity.AuditEntry) error {
	switch {
	case e.ActorID == "":
		return fmt.Errorf("%w: actor_id requerido", domain.ErrInvalidInput)
	case e.Module == "":
		return fmt.Errorf("%w: module requerido", domain.ErrInvalidInput)
	case e.Action == "":
		return fmt.Errorf("%w: action requerido", domain.ErrInvalidInput)
	case e.Severity != "" && !e.Severity.Valid():
		return fmt.Errorf("%w: severity %q desconocida", domain.ErrInvalidInput, e.Severity)
	}
	return nil
}
