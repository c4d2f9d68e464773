package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	LogLevel     string
	StoreBackend string
	HealthAddr   string
	HTTP         HTTPConfig
	Monitor      MonitorConfig
	Ledger       LedgerConfig
	Oracle       OracleConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Database     DatabaseConfig
	Telegram     TelegramConfig
}

// HTTPConfig holds HTTP client configuration
type HTTPConfig struct {
	Timeout time.Duration
}

// MonitorConfig holds diff-monitor scheduling configuration
type MonitorConfig struct {
	PollInterval time.Duration
	MaxPerTick   int
}

// LedgerConfig holds transaction-ledger API configuration
type LedgerConfig struct {
	Endpoint  string
	ApiKey    string
	RateLimit float64
}

// OracleConfig holds price-oracle API configuration
type OracleConfig struct {
	Endpoint string
	QuoteTTL time.Duration
}

// RedisConfig holds the optional shared quote cache configuration.
// An empty Addr disables Redis and quotes are cached in process.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig holds the optional Kafka notification emitter configuration
type KafkaConfig struct {
	Enabled       bool
	BrokerAddress string
	Topic         string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// TelegramConfig holds the chat interface configuration
type TelegramConfig struct {
	Token   string
	ApiBase string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// Not fatal, as env vars might be set externally
	}

	config := &Config{
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		StoreBackend: getEnv("STORE_BACKEND", "postgres"),
		HealthAddr:   getEnv("HEALTH_ADDR", ":8081"),
		HTTP: HTTPConfig{
			Timeout: time.Duration(getEnvAsInt("HTTP_TIMEOUT", 30)) * time.Second,
		},
		Monitor: MonitorConfig{
			PollInterval: time.Duration(getEnvAsInt("POLL_INTERVAL", 30)) * time.Second,
			MaxPerTick:   getEnvAsInt("MAX_TRANSFERS_PER_TICK", 10),
		},
		Ledger: LedgerConfig{
			Endpoint:  getEnv("LEDGER_API_ENDPOINT", "https://api.etherscan.io/api"),
			ApiKey:    getEnv("LEDGER_API_KEY", ""),
			RateLimit: getEnvAsFloat("LEDGER_RATE_LIMIT", 4),
		},
		Oracle: OracleConfig{
			Endpoint: getEnv("PRICE_ORACLE_ENDPOINT", "https://api.coingecko.com/api/v3/simple/price"),
			QuoteTTL: time.Duration(getEnvAsInt("PRICE_QUOTE_TTL", 60)) * time.Second,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Enabled:       getEnvAsBool("KAFKA_ENABLED", false),
			BrokerAddress: getEnv("KAFKA_BROKER_ADDRESS", "localhost:9092"),
			Topic:         getEnv("KAFKA_TOPIC", "wallet-transfers"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "wallet_monitor"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Telegram: TelegramConfig{
			Token:   getEnv("TELEGRAM_BOT_TOKEN", ""),
			ApiBase: getEnv("TELEGRAM_API_BASE", "https://api.telegram.org"),
		},
	}

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloat gets an environment variable as float64 or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as bool or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
