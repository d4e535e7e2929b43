package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcore/pkg/numerator"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/retail")
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 5, cfg.NumberingMaxAttempts)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, numerator.StrategyStrict, cfg.Numbering().Options.Strategy)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", testSecret)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ShortSecretRejected(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/retail")
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoad_CachedNumbering(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/retail")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("NUMBERING_STRATEGY", "cached")
	t.Setenv("NUMBERING_RANGE_SIZE", "20")

	cfg, err := Load()
	require.NoError(t, err)
	nc := cfg.Numbering()
	assert.Equal(t, numerator.StrategyCached, nc.Options.Strategy)
	assert.Equal(t, int64(20), nc.Options.RangeSize)
}

func TestValidate_RejectsUnknownStrategy(t *testing.T) {
	cfg := Config{
		AppEnv: "test", LogLevel: "info", DatabaseURL: "x", DBMaxConns: 1,
		RedisAddr: "localhost:6379", NumberingMaxAttempts: 1, NumberingStrategy: "random",
		NumberingRangeSize: 1, OutboxBatchSize: 1, WorkerConcurrency: 1,
	}
	assert.Error(t, cfg.Validate())

	cfg.NumberingStrategy = "strict"
	assert.NoError(t, cfg.Validate())
}
