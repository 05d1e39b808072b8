package config

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the backend. All values come from
// environment variables so deployments (and the cron-invoked jobs) share one
// source of truth.
type Config struct {
	AppEnv string `envconfig:"APP_ENV" default:"development"`
	Port   string `envconfig:"PORT" default:"8080"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:3001"`

	DBHost       string `envconfig:"DB_HOST" default:"localhost"`
	DBPort       string `envconfig:"DB_PORT" default:"5432"`
	DBUser       string `envconfig:"DB_USER" default:"pharmapos_user"`
	DBPassword   string `envconfig:"DB_PASSWORD" default:"pharmapos_password"`
	DBName       string `envconfig:"DB_NAME" default:"pharmapos_db"`
	DBSSLMode    string `envconfig:"DB_SSLMODE" default:"disable"`
	DBSchemaPath string `envconfig:"DB_SCHEMA_PATH" default:""`

	JWTSecret     string        `envconfig:"JWT_SECRET" required:"true"`
	JWTExpiration time.Duration `envconfig:"JWT_EXPIRATION" default:"72h"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`

	// Default horizon (in days) used by the scheduled expiry sweep when the
	// task payload does not carry one.
	ExpiryHorizonDays int    `envconfig:"EXPIRY_HORIZON_DAYS" default:"10"`
	ExpirySweepCron   string `envconfig:"EXPIRY_SWEEP_CRON" default:"0 2 * * *"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret must be provided")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
