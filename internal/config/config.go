package config

import (
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv    string
	DBPath    string
	DBDriver  string
	RedisAddr string
	HTTPPort  int
	CacheTTL  time.Duration
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() *Config {
	portStr := getEnv("HTTP_PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = 8080
	}

	ttlStr := getEnv("CACHE_TTL_MINUTES", "10")
	ttlMinutes, err := strconv.Atoi(ttlStr)
	if err != nil || ttlMinutes < 1 {
		ttlMinutes = 10
	}

	return &Config{
		AppEnv:    getEnv("APP_ENV", "development"),
		DBPath:    getEnv("DB_PATH", "./data/database.db"),
		DBDriver:  getEnv("DB_DRIVER", "sqlite3"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		HTTPPort:  port,
		CacheTTL:  time.Duration(ttlMinutes) * time.Minute,
	}
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
