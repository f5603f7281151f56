package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	LockLocal = "local"
	LockRedis = "redis"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Ledger   LedgerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Otel     OtelConfig
}

type ServerConfig struct {
	AppEnv          string
	GRPCPort        string
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type LedgerConfig struct {
	Store             string // memory or postgres
	LockBackend       string // local or redis
	LockTTL           time.Duration
	LockAttempts      int
	LockRetryDelay    time.Duration
	CatalogValidation bool
	SyncCheckInterval time.Duration // 0 disables the sync scheduler
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Enabled          bool
	Brokers          []string
	OrdersTopic      string
	SyncTopic        string
	SyncResultsTopic string
	GroupID          string
}

type OtelConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string // empty disables export
	URLPath        string
	Insecure       bool
	ExportTimeout  time.Duration
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:          getEnv("APP_ENV", "dev"),
			GRPCPort:        getEnv("GRPC_PORT", ":8083"),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Ledger: LedgerConfig{
			Store:             getEnv("LEDGER_STORE", StoreMemory),
			LockBackend:       getEnv("LOCK_BACKEND", LockLocal),
			LockTTL:           getEnvDuration("LOCK_TTL", 5*time.Second),
			LockAttempts:      getEnvInt("LOCK_ATTEMPTS", 3),
			LockRetryDelay:    getEnvDuration("LOCK_RETRY_DELAY", 100*time.Millisecond),
			CatalogValidation: getEnvBool("CATALOG_VALIDATION", false),
			SyncCheckInterval: getEnvDuration("SYNC_CHECK_INTERVAL", time.Minute),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5433"),
			User:            getEnv("POSTGRES_USER", "omnipos"),
			Password:        getEnv("POSTGRES_PASSWORD", "omnipos"),
			DBName:          getEnv("POSTGRES_DB", "omnipos_inventory"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Enabled:          getEnvBool("KAFKA_ENABLED", false),
			Brokers:          getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			OrdersTopic:      getEnv("KAFKA_TOPIC_ORDERS", "orders.events"),
			SyncTopic:        getEnv("KAFKA_TOPIC_SYNC", "inventory.sync"),
			SyncResultsTopic: getEnv("KAFKA_TOPIC_SYNC_RESULTS", "inventory.sync.results"),
			GroupID:          getEnv("KAFKA_GROUP_INVENTORY", "inventory"),
		},
		Otel: OtelConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "omnipos-inventory-service"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			Endpoint:       getEnv("OTEL_EXPORTER_ENDPOINT", ""),
			URLPath:        getEnv("OTEL_EXPORTER_URL_PATH", "/v1/traces"),
			Insecure:       getEnvBool("OTEL_EXPORTER_INSECURE", true),
			ExportTimeout:  getEnvDuration("OTEL_EXPORT_TIMEOUT", 10*time.Second),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
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

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.Split(value, ",")
	}
	return fallback
}

// getEnvDuration accepts Go durations ("250ms", "1m") or plain seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if s, err := strconv.Atoi(value); err == nil {
			return time.Duration(s) * time.Second
		}
	}
	return fallback
}
