package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/Expendadeur/nutrifix-sub002/internal/application/auth"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
	"github.com/Expendadeur/nutrifix-sub002/internal/infrastructure/postgres"
	"github.com/Expendadeur/nutrifix-sub002/internal/infrastructure/seed"
	"github.com/Expendadeur/nutrifix-sub002/pkg/config"
	"github.com/Expendadeur/nutrifix-sub002/pkg/qrcode"
)

func hashPasswordCmd() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-password [contraseña]",
		Short: "Genera el hash bcrypt de una contraseña",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pw string
			if len(args) == 1 {
				pw = args[0]
			} else {
				var err error
				if pw, err = readSecret(cmd.InOrStdin(), cmd.ErrOrStderr(), "Contraseña: "); err != nil {
					return err
				}
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
			if err != nil {
				return fmt.Errorf("hash: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "coste bcrypt")
	return cmd
}

func qrCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qr",
		Short: "Códigos QR de credencial",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "issue <user-id>",
		Short: "Firma sin conexión el QR de un usuario con QR_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			payload, p, err := qrcode.Encode(cfg.QR.Secret, args[0], time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "usuario=%s emitido=%s nonce=%s\n", p.UserID, p.IssuedAt.Format(time.RFC3339), p.Nonce)
			fmt.Fprintln(cmd.OutOrStdout(), payload)
			return nil
		},
	})
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspección de tokens de sesión",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "decode <token>",
		Short: "Verifica un token con JWT_SECRET y muestra sus claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			issuer := auth.NewSessionIssuer(auth.SessionConfig{
				Secret:    cfg.JWT.Secret,
				Issuer:    cfg.JWT.Issuer,
				WebTTL:    cfg.JWT.WebTTL(),
				MobileTTL: cfg.JWT.MobileTTL(),
			})
			claims, err := issuer.Decode(args[0])
			if err != nil {
				return err
			}
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendRows([]table.Row{
				{"sub", claims.SubjectID},
				{"role", claims.Role},
				{"department", claims.DepartmentID},
				{"method", claims.Method},
				{"client", claims.Client},
				{"jti", claims.TokenID},
				{"iat", claims.IssuedAt.Format(time.RFC3339)},
				{"exp", claims.ExpiresAt.Format(time.RFC3339)},
			})
			t.Render()
			return nil
		},
	})
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migraciones del esquema PostgreSQL",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Aplica las migraciones pendientes",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				if err := postgres.Migrate(cfg.DB.ConnectionString()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migraciones aplicadas.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down [pasos]",
			Short: "Revierte migraciones (1 por defecto)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n <= 0 {
						return fmt.Errorf("pasos inválidos: %q", args[0])
					}
					steps = n
				}
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				if err := postgres.MigrateDown(cfg.DB.ConnectionString(), steps); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d migración(es) revertida(s).\n", steps)
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Versión actual del esquema",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				v, dirty, err := postgres.MigrationVersion(cfg.DB.ConnectionString())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "versión=%d dirty=%t\n", v, dirty)
				return nil
			},
		},
	)
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Carga los usuarios de demostración en PostgreSQL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.App.IsProduction() {
				return fmt.Errorf("seed no está permitido en producción")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			pool, err := postgres.NewPool(ctx, cfg.DB)
			if err != nil {
				return err
			}
			defer pool.Close()

			demo, err := seed.DemoUsers(time.Now())
			if err != nil {
				return err
			}
			ids := make([]any, 0, len(demo))
			err = postgres.NewTxRunner(pool).Run(ctx, func(repos postgres.Repos) error {
				for _, u := range demo {
					if err := repos.Users.Upsert(ctx, u); err != nil {
						return fmt.Errorf("usuario %s: %w", u.ID, err)
					}
					ids = append(ids, u.ID)
				}
				return repos.Audit.Insert(ctx, &entity.AuditEntry{
					ID:            uuid.NewString(),
					ActorID:       "system",
					Module:        "users",
					Action:        "SEED_USERS",
					Details:       map[string]any{"user_ids": ids},
					AffectedTable: "users",
					Severity:      entity.SeverityInfo,
					CreatedAt:     time.Now().UTC(),
				})
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d usuarios de demostración cargados (contraseña %q).\n", len(demo), seed.DemoPassword)
			return nil
		},
	}
}
