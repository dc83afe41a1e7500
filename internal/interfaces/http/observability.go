package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/Expendadeur/nutrifix-sub002/internal/infrastructure/metrics"
	"github.com/Expendadeur/nutrifix-sub002/pkg/logger"
)

// Observability mide la duración de cada petición y la registra en el log.
// Usa el patrón de ruta como etiqueta para no disparar la cardinalidad.
func Observability(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()
		if chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		if c.Path() == "/metrics" {
			return nil
		}
		dur := time.Since(start)
		status := c.Response().StatusCode()
		route := c.Route().Path
		metrics.RecordRequest(c.Method(), route, status, dur.Seconds())

		if log != nil {
			ev := log.Info()
			if status >= fiber.StatusInternalServerError {
				ev = log.Error()
			} else if status >= fiber.StatusBadRequest {
				ev = log.Warn()
			}
			rid, _ := c.Locals(requestid.ConfigDefault.ContextKey).(string)
			ev.Str("request_id", rid).
				Str("method", c.Method()).
				Str("route", route).
				Int("status", status).
				Int64("duration_ms", dur.Milliseconds()).
				Msg("request")
		}
		return nil
	}
}
