package http

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
)

// AuditDispatcher recibe entradas para escribirlas en segundo plano. Lo implementa *audit.Trail.
type AuditDispatcher interface {
	Dispatch(entry entity.AuditEntry)
}

// TracerConfig configuración de RequestTracer para un grupo de rutas.
type TracerConfig struct {
	Module string
	// ExcludeActions acciones "<METHOD>_<ruta>" que no se registran, p. ej. "GET_/api/auth/me".
	ExcludeActions []string
	// IncludeBody añade el cuerpo JSON (redactado) a los detalles.
	IncludeBody bool
}

// RequestTracer registra una entrada de auditoría por petición una vez producida la respuesta.
// La escritura no retrasa ni altera la respuesta. Sin sesión no hay actor y no se registra.
// Debe ir después de AuthMiddleware.
func RequestTracer(sink AuditDispatcher, cfg TracerConfig) fiber.Handler {
	exclude := make(map[string]struct{}, len(cfg.ExcludeActions))
	for _, a := range cfg.ExcludeActions {
		exclude[a] = struct{}{}
	}
	return func(c *fiber.Ctx) error {
		if chainErr := c.Next(); chainErr != nil {
			// Escribir ya la respuesta de error para conocer el estado final.
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		claims, ok := GetClaims(c)
		if !ok || claims.SubjectID == "" {
			return nil
		}
		action := c.Method() + "_" + c.Route().Path
		if _, skip := exclude[action]; skip {
			return nil
		}

		// El *fiber.Ctx se recicla al terminar: todo lo que sale hacia la goroutine se copia.
		status := c.Response().StatusCode()
		details := map[string]any{
			"method": utils.CopyString(c.Method()),
			"path":   utils.CopyString(c.Path()),
			"status": status,
		}
		if params := c.AllParams(); len(params) > 0 {
			details["params"] = copyStrings(params)
		}
		if query := c.Queries(); len(query) > 0 {
			details["query"] = copyStrings(query)
		}
		if cfg.IncludeBody {
			if body := c.Body(); len(body) > 0 {
				var parsed map[string]any
				if json.Unmarshal(body, &parsed) == nil {
					details["body"] = parsed
				}
			}
		}

		severity := entity.SeverityInfo
		if status >= fiber.StatusBadRequest {
			severity = entity.SeverityError
		}
		sink.Dispatch(entity.AuditEntry{
			ActorID:   claims.SubjectID,
			Module:    cfg.Module,
			Action:    utils.CopyString(action),
			Details:   details,
			SourceIP:  utils.CopyString(c.IP()),
			UserAgent: utils.CopyString(c.Get(fiber.HeaderUserAgent)),
			Severity:  severity,
		})
		return nil
	}
}

func copyStrings(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[utils.CopyString(k)] = utils.CopyString(v)
	}
	return out
}
