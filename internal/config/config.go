// Package config loads runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/kelseyhightower/envconfig"

	infranumerator "retailcore/internal/infrastructure/numerator"
	"retailcore/internal/infrastructure/storage/postgres"
	"retailcore/pkg/logger"
	"retailcore/pkg/numerator"
)

// Config holds runtime configuration for the server, worker and migrator.
type Config struct {
	AppEnv string `envconfig:"APP_ENV" default:"development" validate:"oneof=development staging production test"`

	HTTPAddr         string        `envconfig:"HTTP_ADDR" default:":8080"`
	HTTPReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	HTTPWriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout  time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	DatabaseURL      string        `envconfig:"DATABASE_URL" required:"true" validate:"required"`
	DBMaxConns       int32         `envconfig:"DB_MAX_CONNS" default:"25" validate:"gte=1"`
	DBMinConns       int32         `envconfig:"DB_MIN_CONNS" default:"2" validate:"gte=0"`
	StatementTimeout time.Duration `envconfig:"DB_STATEMENT_TIMEOUT" default:"30s"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379" validate:"required"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0" validate:"gte=0"`

	JWTSecret string `envconfig:"JWT_SECRET"`

	// ApproverRule overrides the CEL expression guarding approve/reject.
	ApproverRule string `envconfig:"APPROVER_RULE"`

	NumberingMaxAttempts int           `envconfig:"NUMBERING_MAX_ATTEMPTS" default:"5" validate:"gte=1,lte=20"`
	NumberingBackoff     time.Duration `envconfig:"NUMBERING_BACKOFF" default:"10ms"`
	NumberingStrategy    string        `envconfig:"NUMBERING_STRATEGY" default:"strict" validate:"oneof=strict cached"`
	NumberingRangeSize   int64         `envconfig:"NUMBERING_RANGE_SIZE" default:"50" validate:"gte=1"`

	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`

	OutboxPollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"1s"`
	OutboxBatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100" validate:"gte=1"`
	OutboxRetention    time.Duration `envconfig:"OUTBOX_RETENTION" default:"168h"`

	WorkerConcurrency int `envconfig:"WORKER_CONCURRENCY" default:"5" validate:"gte=1"`
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %s failed on %q", verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.AppEnv != "test" && len(c.JWTSecret) < 32 {
		return errors.New("invalid config: JWT_SECRET must be at least 32 bytes")
	}
	if c.DBMinConns > c.DBMaxConns {
		return errors.New("invalid config: DB_MIN_CONNS exceeds DB_MAX_CONNS")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// Logger returns the logger configuration.
func (c *Config) Logger() logger.Config {
	return logger.Config{Level: c.LogLevel, Development: c.AppEnv == "development"}
}

// Pool returns the database pool configuration.
func (c *Config) Pool() postgres.PoolConfig {
	pc := postgres.DefaultPoolConfig(c.DatabaseURL)
	pc.MaxConns = c.DBMaxConns
	pc.MinConns = c.DBMinConns
	return pc
}

// Numbering returns the document numbering configuration.
func (c *Config) Numbering() infranumerator.Config {
	nc := infranumerator.DefaultConfig()
	nc.MaxAttempts = c.NumberingMaxAttempts
	nc.BaseBackoff = c.NumberingBackoff
	if c.NumberingStrategy == "cached" {
		nc.Options = numerator.Options{Strategy: numerator.StrategyCached, RangeSize: c.NumberingRangeSize}
	}
	return nc
}

// AsynqRedis returns the asynq connection options.
func (c *Config) AsynqRedis() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}
