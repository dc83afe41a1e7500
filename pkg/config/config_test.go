package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, 24*time.Hour, cfg.JWT.WebTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.MobileTTL())
	assert.Equal(t, "s3cret", cfg.QR.Secret, "QR_SECRET cae en JWT_SECRET")
	assert.Zero(t, cfg.QR.MaxAge())
	assert.False(t, cfg.Auth.ExposeDisabledAccount)
	assert.Equal(t, 5*time.Second, cfg.Audit.DispatchTimeout())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("QR_SECRET", "qr")
	t.Setenv("QR_MAX_AGE_MINUTES", "15")
	t.Setenv("JWT_WEB_EXPIRATION_MINUTES", "60")
	t.Setenv("AUTH_EXPOSE_DISABLED_ACCOUNT", "true")
	t.Setenv("DB_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "qr", cfg.QR.Secret)
	assert.Equal(t, 15*time.Minute, cfg.QR.MaxAge())
	assert.Equal(t, time.Hour, cfg.JWT.WebTTL())
	assert.True(t, cfg.Auth.ExposeDisabledAccount)
	assert.Equal(t, "memory", cfg.DB.Driver)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App: AppConfig{Env: "development"},
			DB:  DBConfig{Driver: "postgres"},
			JWT: JWTConfig{Secret: "x", WebExpiration: 10, MobileExpiration: 10},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"sin secreto en producción", func(c *Config) { c.App.Env = "production"; c.JWT.Secret = "" }},
		{"ventana no positiva", func(c *Config) { c.JWT.WebExpiration = 0 }},
		{"driver desconocido", func(c *Config) { c.DB.Driver = "sqlite" }},
		{"memoria en producción", func(c *Config) { c.App.Env = "production"; c.DB.Driver = "memory" }},
		{"frescura negativa", func(c *Config) { c.QR.MaxAgeMinutes = -1 }},
		{"uso único sin redis", func(c *Config) { c.QR.OneTimeUse = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "nutrifix", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/nutrifix?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://override"
	assert.Equal(t, "postgres://override", c.ConnectionString())
}
