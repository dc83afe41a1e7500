package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration duración de las peticiones HTTP por método, ruta y estado.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// LoginAttempts intentos de login por método de prueba y resultado.
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Login attempts by proof method and outcome",
		},
		[]string{"method", "outcome"},
	)

	// AuditWrites escrituras de auditoría por resultado (ok, failed, invalid).
	AuditWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_writes_total",
			Help: "Audit trail writes by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(RequestDuration, LoginAttempts, AuditWrites)
}

// RecordRequest registra duración de una petición. path debe ser el patrón de ruta, no la URL.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	if path == "" {
		path = "/"
	}
	RequestDuration.WithLabelValues(method, path, strconv.Itoa(statusCode)).Observe(durationSeconds)
}

// IncLogin cuenta un intento de login.
func IncLogin(method, outcome string) {
	LoginAttempts.WithLabelValues(method, outcome).Inc()
}

// IncAuditWrite cuenta una escritura de auditoría.
func IncAuditWrite(outcome string) {
	AuditWrites.WithLabelValues(outcome).Inc()
}
