package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "datagate/pkg/platform/strings"
)

// Store backends selectable through DATAGATE_STORE.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreSQLite   = "sqlite"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	Store         string
	DatabaseURL   string
	SQLitePath    string
	Redis         RedisConfig
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	SystemAddress string
	Kafka         KafkaConfig
	AuditBuffer   int
	LogLevel      string
}

// RedisConfig configures the shared go-redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig enables the audit relay when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:        getEnv("DATAGATE_ADDR", ":8080"),
		Store:       strings.ToLower(getEnv("DATAGATE_STORE", StoreMemory)),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  getEnv("SQLITE_PATH", "datagate.db"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		JWTSigningKey: jwtSigningKey,
		JWTIssuer:     getEnv("JWT_ISSUER", "datagate"),
		JWTAudience:   getEnv("JWT_AUDIENCE", "datagate"),
		SystemAddress: os.Getenv("DATAGATE_SYSTEM_ADDRESS"),
		Kafka: KafkaConfig{
			Brokers: platformstrings.SplitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("AUDIT_TOPIC", "datagate.audit"),
		},
		AuditBuffer: getEnvInt("AUDIT_BUFFER_SIZE", 1024),
		LogLevel:    getEnv("DATAGATE_LOG_LEVEL", "info"),
	}
}

// Validate reports settings the selected backend cannot run without.
func (s Server) Validate() error {
	switch s.Store {
	case StoreMemory:
	case StorePostgres:
		if s.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	case StoreRedis:
		if s.Redis.URL == "" {
			return errors.New("REDIS_URL is required for the redis store")
		}
	case StoreSQLite:
		if s.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unknown store %q", s.Store)
	}
	if s.AuditBuffer < 0 {
		return errors.New("AUDIT_BUFFER_SIZE must not be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
