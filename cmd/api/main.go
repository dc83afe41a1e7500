package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/Expendadeur/nutrifix-sub002/docs"
	"github.com/Expendadeur/nutrifix-sub002/internal/application/audit"
	"github.com/Expendadeur/nutrifix-sub002/internal/application/auth"
	"github.com/Expendadeur/nutrifix-sub002/internal/application/usecase"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/repository"
	"github.com/Expendadeur/nutrifix-sub002/internal/infrastructure/authenticator"
	"github.com/Expendadeur/nutrifix-sub002/internal/infrastructure/memory"
	"github.com/Expendadeur/nutrifix-sub002/internal/infrastructure/postgres"
	"github.com/Expendadeur/nutrifix-sub002/internal/infrastructure/ratelimit"
	infraredis "github.com/Expendadeur/nutrifix-sub002/internal/infrastructure/redis"
	"github.com/Expendadeur/nutrifix-sub002/internal/infrastructure/seed"
	httpRouter "github.com/Expendadeur/nutrifix-sub002/internal/interfaces/http"
	"github.com/Expendadeur/nutrifix-sub002/pkg/config"
	"github.com/Expendadeur/nutrifix-sub002/pkg/logger"
)

// storage agrupa los puertos de persistencia según DB_DRIVER.
type storage struct {
	users repository.UserDirectory
	creds repository.CredentialRepository
	audit repository.AuditStore
	close func()
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) storage {
	if cfg.DB.Driver == "memory" {
		demo, err := seed.DemoUsers(time.Now())
		if err != nil {
			log.Fatal().Err(err).Msg("usuarios de demostración")
		}
		users := memory.NewUserDirectory(demo...)
		log.Warn().Int("users", len(demo)).Msg("almacenamiento en memoria con usuarios de demostración")
		return storage{
			users: users,
			creds: memory.NewCredentialRepository(),
			audit: memory.NewAuditStore(users),
			close: func() {},
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	return storage{
		users: postgres.NewUserRepository(pool),
		creds: postgres.NewCredentialRepository(pool),
		audit: postgres.NewAuditRepository(pool),
		close: pool.Close,
	}
}

// @title                       Nutrifix Auth API
// @version                     1.0
// @description                 Autenticación, control de acceso y auditoría de Nutrifix.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("db_driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store := openStorage(ctx, cfg, log)
	defer store.close()

	qr := auth.QRPolicy{Secret: cfg.QR.Secret, MaxAge: cfg.QR.MaxAge()}
	if cfg.QR.OneTimeUse {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		qr.Nonces = infraredis.NewNonceStore(rdb)
	}

	// Sin servicio externo el login biométrico responde credenciales inválidas.
	var authn repository.Authenticator
	if cfg.Authenticator.URL != "" {
		authn = authenticator.New(cfg.Authenticator.URL, cfg.Authenticator.APIKey, cfg.Authenticator.Timeout())
	} else {
		log.Warn().Msg("AUTHENTICATOR_URL vacío: login biométrico deshabilitado")
	}

	sessions := auth.NewSessionIssuer(auth.SessionConfig{
		Secret:    cfg.JWT.Secret,
		Issuer:    cfg.JWT.Issuer,
		WebTTL:    cfg.JWT.WebTTL(),
		MobileTTL: cfg.JWT.MobileTTL(),
	})
	verifier := auth.NewVerifier(store.users, store.creds, authn, qr, log)
	trail := audit.NewTrail(store.audit, log, audit.WithDispatchTimeout(cfg.Audit.DispatchTimeout()))

	authUC := auth.NewAuthUseCase(store.users, store.creds, verifier, sessions, trail, cfg.QR.Secret, log)
	directoryUC := usecase.NewDirectoryUseCase(store.users)

	var loginLimiter *ratelimit.Limiter
	if cfg.Auth.LoginRatePerMinute > 0 {
		loginLimiter = ratelimit.PerMinute(cfg.Auth.LoginRatePerMinute, cfg.Auth.LoginBurst)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.HTTP.BodyLimit,
		ErrorHandler: httpRouter.ErrorHandler(log),
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.Observability(log))

	// Swagger UI en local: http://localhost:<port>/docs
	docs.SwaggerInfo.Title = cfg.App.Name
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Nutrifix Auth API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:       authUC,
		DirectoryUC:  directoryUC,
		Sessions:     sessions,
		Trail:        trail,
		LoginLimiter: loginLimiter,
		Policy:       httpRouter.ErrorPolicy{ExposeDisabledAccount: cfg.Auth.ExposeDisabledAccount},
		Log:          log,
	})

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	if loginLimiter != nil {
		go func() {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-sweepCtx.Done():
					return
				case <-ticker.C:
					if n := loginLimiter.Sweep(); n > 0 {
						log.Debug().Int("removed", n).Msg("limitador de login depurado")
					}
				}
			}
		}()
	}

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	// Las entradas de auditoría en vuelo se escriben antes de cerrar el almacén.
	if err := trail.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("vaciado de auditoría")
	}

	log.Info().Msg("aplicación detenida")
}
