package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App   AppConfig
	DB    DBConfig
	JWT   JWTConfig
	HTTP  HTTPConfig
	Redis RedisConfig
	QR    QRConfig
	Auth  AuthConfig
	Audit AuditConfig

	Authenticator AuthenticatorConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// IsProduction informa si la app corre en producción.
func (c AppConfig) IsProduction() bool { return c.Env == "production" }

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	Driver      string // postgres | memory
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
	MinConns    int
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de los tokens de sesión. Las ventanas dependen del cliente.
type JWTConfig struct {
	Secret           string
	Issuer           string
	WebExpiration    int // minutos
	MobileExpiration int // minutos
}

// WebTTL ventana de sesión para el cliente web.
func (c JWTConfig) WebTTL() time.Duration { return time.Duration(c.WebExpiration) * time.Minute }

// MobileTTL ventana de sesión para el cliente móvil.
func (c JWTConfig) MobileTTL() time.Duration {
	return time.Duration(c.MobileExpiration) * time.Minute
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host      string
	Port      int
	BodyLimit int // bytes
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig almacén de nonces QR. Addr vacío desactiva el uso único.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// QRConfig firma y frescura de los códigos QR de credencial.
type QRConfig struct {
	Secret        string
	MaxAgeMinutes int // 0 = sin ventana de frescura
	OneTimeUse    bool
}

// MaxAge ventana de frescura (0 = sin límite).
func (c QRConfig) MaxAge() time.Duration { return time.Duration(c.MaxAgeMinutes) * time.Minute }

// AuthConfig política de login.
type AuthConfig struct {
	// ExposeDisabledAccount devuelve un mensaje distinto para cuentas desactivadas.
	ExposeDisabledAccount bool
	LoginRatePerMinute    int
	LoginBurst            int
}

// AuditConfig despacho de la auditoría.
type AuditConfig struct {
	DispatchTimeoutSeconds int
}

// DispatchTimeout tiempo máximo de una escritura despachada en segundo plano.
func (c AuditConfig) DispatchTimeout() time.Duration {
	return time.Duration(c.DispatchTimeoutSeconds) * time.Second
}

// AuthenticatorConfig servicio externo que verifica aserciones biométricas.
// URL vacía deshabilita el login biométrico.
type AuthenticatorConfig struct {
	URL            string
	APIKey         string
	TimeoutSeconds int
}

// Timeout tiempo máximo de una verificación remota.
func (c AuthenticatorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, JWT_SECRET, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "nutrifix-auth"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			Driver:      getString(v, "DB_DRIVER", "postgres"),
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "nutrifix"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 10),
			MinConns:    getInt(v, "DB_MIN_CONNS", 1),
		},
		JWT: JWTConfig{
			Secret:           getString(v, "JWT_SECRET", ""),
			Issuer:           getString(v, "JWT_ISSUER", "nutrifix"),
			WebExpiration:    getInt(v, "JWT_WEB_EXPIRATION_MINUTES", 24*60),
			MobileExpiration: getInt(v, "JWT_MOBILE_EXPIRATION_MINUTES", 7*24*60),
		},
		HTTP: HTTPConfig{
			Host:      getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:      getInt(v, "HTTP_PORT", 8080),
			BodyLimit: getInt(v, "HTTP_BODY_LIMIT", 1<<20),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", ""),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
		},
		QR: QRConfig{
			Secret:        getString(v, "QR_SECRET", ""),
			MaxAgeMinutes: getInt(v, "QR_MAX_AGE_MINUTES", 0),
			OneTimeUse:    getBool(v, "QR_ONE_TIME_USE", false),
		},
		Auth: AuthConfig{
			ExposeDisabledAccount: getBool(v, "AUTH_EXPOSE_DISABLED_ACCOUNT", false),
			LoginRatePerMinute:    getInt(v, "AUTH_LOGIN_RATE_PER_MINUTE", 10),
			LoginBurst:            getInt(v, "AUTH_LOGIN_BURST", 5),
		},
		Audit: AuditConfig{
			DispatchTimeoutSeconds: getInt(v, "AUDIT_DISPATCH_TIMEOUT_SECONDS", 5),
		},
		Authenticator: AuthenticatorConfig{
			URL:            getString(v, "AUTHENTICATOR_URL", ""),
			APIKey:         getString(v, "AUTHENTICATOR_API_KEY", ""),
			TimeoutSeconds: getInt(v, "AUTHENTICATOR_TIMEOUT_SECONDS", 5),
		},
	}
	if cfg.QR.Secret == "" {
		cfg.QR.Secret = cfg.JWT.Secret
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rechaza combinaciones que no permiten emitir sesiones seguras.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" && c.App.IsProduction() {
		return fmt.Errorf("config: JWT_SECRET es obligatorio en producción")
	}
	if c.JWT.WebExpiration <= 0 || c.JWT.MobileExpiration <= 0 {
		return fmt.Errorf("config: las ventanas de sesión deben ser positivas")
	}
	if c.DB.Driver != "postgres" && c.DB.Driver != "memory" {
		return fmt.Errorf("config: DB_DRIVER debe ser postgres o memory")
	}
	if c.DB.Driver == "memory" && c.App.IsProduction() {
		return fmt.Errorf("config: DB_DRIVER=memory no está permitido en producción")
	}
	if c.QR.MaxAgeMinutes < 0 {
		return fmt.Errorf("config: QR_MAX_AGE_MINUTES no puede ser negativo")
	}
	if c.QR.OneTimeUse && c.Redis.Addr == "" {
		return fmt.Errorf("config: QR_ONE_TIME_USE requiere REDIS_ADDR")
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}
