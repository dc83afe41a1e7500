package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Expendadeur/nutrifix-sub002/internal/application/auth"
	"github.com/Expendadeur/nutrifix-sub002/internal/application/usecase"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
	"github.com/Expendadeur/nutrifix-sub002/internal/infrastructure/ratelimit"
	"github.com/Expendadeur/nutrifix-sub002/pkg/logger"
)

// AuditTrail lo que el router necesita del historial. Lo implementa *audit.Trail.
type AuditTrail interface {
	AuditDispatcher
	Query(ctx context.Context, filter entity.AuditFilter) ([]entity.AuditRecord, int, error)
}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC       *auth.AuthUseCase
	DirectoryUC  *usecase.DirectoryUseCase
	Sessions     TokenDecoder
	Trail        AuditTrail
	LoginLimiter *ratelimit.Limiter // nil = sin límite
	Policy       ErrorPolicy
	Log          *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	authn := AuthMiddleware(deps.Sessions)
	active := RequireActiveUser(deps.AuthUC)

	// Auth
	authHandler := NewAuthHandler(deps.AuthUC, deps.Policy, deps.Log)
	authGroup := api.Group("/auth")
	login := []fiber.Handler{authHandler.Login}
	if deps.LoginLimiter != nil {
		login = append([]fiber.Handler{deps.LoginLimiter.Middleware()}, login...)
	}
	authGroup.Post("/login", login...)
	authGroup.Post("/refresh", authHandler.Refresh)
	authGroup.Get("/me", authn, authHandler.Me)
	authGroup.Post("/biometric/register", authn, active,
		RequestTracer(deps.Trail, TracerConfig{Module: "auth", IncludeBody: true}),
		authHandler.RegisterBiometric)

	// Directorio (protegido, trazado)
	userHandler := NewUserHandler(deps.DirectoryUC, deps.Log)
	users := api.Group("/users", authn, RequestTracer(deps.Trail, TracerConfig{Module: "users"}))
	users.Get("/:id", userHandler.GetByID)
	users.Post("/:id/qr", active, RequireRole(entity.RoleManager), authHandler.IssueQR)

	departments := api.Group("/departments", authn, RequestTracer(deps.Trail, TracerConfig{Module: "departments"}))
	departments.Get("/:id/users", userHandler.ListDepartment)

	// Auditoría: la propia consulta del historial no se vuelve a auditar.
	auditHandler := NewAuditHandler(deps.Trail, deps.Log)
	auditGroup := api.Group("/audit", authn, RequestTracer(deps.Trail, TracerConfig{
		Module:         "audit",
		ExcludeActions: []string{"GET_/api/audit"},
	}))
	auditGroup.Get("", RequireRole(), auditHandler.List)
	auditGroup.Get("/:table/:recordId", RequireRole(entity.RoleComptable), auditHandler.RecordHistory)
}
