// Package config provides configuration management for the account scanner.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Solana    SolanaConfig
	Prices    PricesConfig
	Cache     CacheConfig
	Scanner   ScannerConfig
	Hub       HubConfig
	Worker    WorkerConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// SolanaConfig holds RPC endpoint configuration
type SolanaConfig struct {
	RPCURL         string
	RequestTimeout time.Duration
}

// PricesConfig holds price provider configuration. An empty APIKey disables
// remote lookups entirely; the fallback table is used for every symbol.
type PricesConfig struct {
	APIKey       string
	TokenListURL string
}

// CacheConfig holds the per-cache TTLs
type CacheConfig struct {
	MetadataTTL  time.Duration
	PriceTTL     time.Duration
	TokenListTTL time.Duration
	SecurityTTL  time.Duration
}

// ScannerConfig holds periodic scanner configuration
type ScannerConfig struct {
	Interval time.Duration
}

// HubConfig holds websocket hub configuration
type HubConfig struct {
	SendBuffer int
}

// WorkerConfig holds refresh worker pool configuration
type WorkerConfig struct {
	Workers   int
	QueueSize int
}

// RateLimitConfig holds API rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// PostgresConfig holds the optional watchlist database configuration.
// An empty Host disables the Postgres address source.
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// RedisConfig holds the optional shared cache backend configuration.
// An empty Host keeps all caches in process memory.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// URL returns a connection URL for migrations
func (p PostgresConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		p.User, p.Password, p.Host, p.Port, p.Database)
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// .env file is optional - environment variables can be set directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnv("SERVER_PORT", "8000"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Solana: SolanaConfig{
			RPCURL:         getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
			RequestTimeout: getEnvAsDuration("SOLANA_REQUEST_TIMEOUT", 15*time.Second),
		},
		Prices: PricesConfig{
			APIKey:       getEnv("COIN_API_KEY", ""),
			TokenListURL: getEnv("TOKEN_LIST_URL", "https://token.jup.ag/all"),
		},
		Cache: CacheConfig{
			MetadataTTL:  getEnvAsDuration("CACHE_METADATA_TTL", time.Hour),
			PriceTTL:     getEnvAsDuration("CACHE_PRICE_TTL", 5*time.Minute),
			TokenListTTL: getEnvAsDuration("CACHE_TOKEN_LIST_TTL", 24*time.Hour),
			SecurityTTL:  getEnvAsDuration("CACHE_SECURITY_TTL", time.Hour),
		},
		Scanner: ScannerConfig{
			Interval: getEnvAsDuration("SCAN_INTERVAL", 60*time.Second),
		},
		Hub: HubConfig{
			SendBuffer: getEnvAsInt("HUB_SEND_BUFFER", 64),
		},
		Worker: WorkerConfig{
			Workers:   getEnvAsInt("REFRESH_WORKERS", 4),
			QueueSize: getEnvAsInt("REFRESH_QUEUE_SIZE", 256),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsInt("RATE_LIMIT_RPS", 20),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 40),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Postgres: PostgresConfig{
			Host:           getEnv("POSTGRES_HOST", ""),
			Port:           getEnv("POSTGRES_PORT", "5432"),
			Database:       getEnv("POSTGRES_DB", "solana_scanner"),
			User:           getEnv("POSTGRES_USER", "scanner"),
			Password:       getEnv("POSTGRES_PASSWORD", ""),
			MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 20),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
	}

	return config, nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
