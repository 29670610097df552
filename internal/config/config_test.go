package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE", StorageMemory)
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, IdempotencyNone, cfg.Idempotency.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
	assert.Equal(t, 100, cfg.Outbox.BatchSize)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE", StoragePostgres)
	t.Setenv("DATABASE_URL", "postgres://localhost/retailops")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("OUTBOX_POLL_INTERVAL", "250ms")
	t.Setenv("IDEMPOTENCY_BACKEND", IdempotencyPostgres)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 250*time.Millisecond, cfg.Outbox.PollInterval)
	assert.False(t, cfg.App.Development())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:         AppConfig{Env: "development", Storage: StorageMemory},
			Outbox:      OutboxConfig{BatchSize: 10},
			Idempotency: IdempotencyConfig{Backend: IdempotencyNone},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"memory defaults", func(c *Config) {}, true},
		{"postgres without dsn", func(c *Config) { c.App.Storage = StoragePostgres }, false},
		{"unknown storage", func(c *Config) { c.App.Storage = "sqlite" }, false},
		{"postgres idempotency on memory", func(c *Config) { c.Idempotency.Backend = IdempotencyPostgres }, false},
		{"production without secret", func(c *Config) { c.App.Env = "production" }, false},
		{"zero batch", func(c *Config) { c.Outbox.BatchSize = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
