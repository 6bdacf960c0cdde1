package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"

	EnvProduction = "production"
	EnvTest       = "test"
)

// Config is the full process configuration, read from the environment.
type Config struct {
	Port           string `env:"PORT" envDefault:"3000"`
	Environment    string `env:"APP_ENV" envDefault:"development"`
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"memory"`

	SeedOnStart    bool `env:"SEED_ON_START"`
	MigrateOnStart bool `env:"MIGRATE_ON_START"`

	Database  DatabaseConfig
	Auth      AuthConfig
	HTTP      HTTPConfig
	Telemetry TelemetryConfig
}

type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL"`
	MaxConns        int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	MinConns        int32         `env:"DB_MIN_CONNS" envDefault:"0"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
}

type HTTPConfig struct {
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"100"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`

	// CORSAllowedOrigins empty means any origin is reflected back.
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// TrustProxy keys the rate limit on forwarded client headers instead of the socket peer.
	TrustProxy bool `env:"TRUST_PROXY"`

	// UsersListRequiresAuth puts GET /api/users behind the bearer guard.
	UsersListRequiresAuth bool `env:"USERS_LIST_REQUIRE_AUTH"`

	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type TelemetryConfig struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"true"`
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"tripsync-api"`
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, EnvProduction)
}

// Load parses the environment and validates cross-field rules.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))

	switch cfg.StorageBackend {
	case BackendMemory:
	case BackendPostgres:
		if strings.TrimSpace(cfg.Database.URL) == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	default:
		return Config{}, fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", BackendMemory, BackendPostgres, cfg.StorageBackend)
	}
	if err := cfg.Auth.validate(); err != nil {
		return Config{}, err
	}
	if cfg.HTTP.RateLimitRequests <= 0 || cfg.HTTP.RateLimitWindow <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}
	return cfg, nil
}
