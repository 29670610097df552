// Package config loads process configuration from the environment.
// An optional .env file in the working directory is read first; variables
// already set in the environment win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Idempotency backends.
const (
	IdempotencyNone     = "none"
	IdempotencyRedis    = "redis"
	IdempotencyPostgres = "postgres"
)

type Config struct {
	App         AppConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	JWT         JWTConfig
	Outbox      OutboxConfig
	Idempotency IdempotencyConfig
}

type AppConfig struct {
	Env         string
	Port        string
	LogLevel    string
	Storage     string
	MetricsPath string
}

// Development reports whether the process runs in development mode.
func (a AppConfig) Development() bool {
	return a.Env == "development"
}

type PostgresConfig struct {
	DSN              string
	MaxConns         int
	MinConns         int
	MaxConnLifetime  time.Duration
	// StatementTimeout bounds every statement run inside a transaction.
	StatementTimeout time.Duration
	ApplySchema      bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type OutboxConfig struct {
	BatchSize    int
	PollInterval time.Duration
	MaxRetries   int
}

type IdempotencyConfig struct {
	Backend string
	TTL     time.Duration
}

// Load reads the configuration.
func Load() (*Config, error) {
	// Missing .env is fine.
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Env:         getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Storage:     getEnv("STORAGE", StoragePostgres),
			MetricsPath: getEnv("METRICS_PATH", "/metrics"),
		},
		Postgres: PostgresConfig{
			DSN:              getEnv("DATABASE_URL", ""),
			MaxConns:         getEnvInt("POSTGRES_MAX_CONNS", 25),
			MinConns:         getEnvInt("POSTGRES_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvDuration("POSTGRES_CONN_MAX_LIFETIME", time.Hour),
			StatementTimeout: getEnvDuration("POSTGRES_STATEMENT_TIMEOUT", 30*time.Second),
			ApplySchema:      getEnvBool("POSTGRES_APPLY_SCHEMA", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:      getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:        getEnv("KAFKA_TOPIC", "retailops.events"),
			BatchTimeout: getEnvDuration("KAFKA_BATCH_TIMEOUT", 10*time.Millisecond),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			Issuer: getEnv("JWT_ISSUER", "retailops"),
		},
		Outbox: OutboxConfig{
			BatchSize:    getEnvInt("OUTBOX_BATCH_SIZE", 100),
			PollInterval: getEnvDuration("OUTBOX_POLL_INTERVAL", time.Second),
			MaxRetries:   getEnvInt("OUTBOX_MAX_RETRIES", 5),
		},
		Idempotency: IdempotencyConfig{
			Backend: getEnv("IDEMPOTENCY_BACKEND", IdempotencyNone),
			TTL:     getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required settings are present and consistent.
func (c *Config) Validate() error {
	switch c.App.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("DATABASE_URL is required for %s storage", StoragePostgres)
		}
	default:
		return fmt.Errorf("unknown STORAGE %q", c.App.Storage)
	}

	switch c.Idempotency.Backend {
	case IdempotencyNone, IdempotencyRedis:
	case IdempotencyPostgres:
		if c.App.Storage != StoragePostgres {
			return fmt.Errorf("IDEMPOTENCY_BACKEND=%s requires STORAGE=%s", IdempotencyPostgres, StoragePostgres)
		}
	default:
		return fmt.Errorf("unknown IDEMPOTENCY_BACKEND %q", c.Idempotency.Backend)
	}

	if c.JWT.Secret == "" && !c.App.Development() {
		return fmt.Errorf("JWT_SECRET is required outside development")
	}
	if c.Outbox.BatchSize <= 0 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
