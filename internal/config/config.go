// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"marketplace-ledger/pkg/db" // Import db package for its Config struct
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort    string
	DB            db.Config
	RedisAddr     string
	RedisPassword string
	SummaryTTL    time.Duration
}

// LoadConfig loads configuration from environment variables, preceded by an
// optional .env file. It returns an AppConfig instance or an error if any
// variable is invalid.
func LoadConfig() (*AppConfig, error) {
	// Missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	serverPort := getEnv("SERVER_PORT", "8080")

	dbHost := getEnv("DB_HOST", "localhost")
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	dbUser := getEnv("DB_USER", "user")
	dbPassword := getEnv("DB_PASSWORD", "password")
	dbName := getEnv("DB_NAME", "ledgerdb")
	dbSSLMode := getEnv("DB_SSLMODE", "disable")

	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	redisPassword := getEnv("REDIS_PASSWORD", "")

	summaryTTLSeconds, err := strconv.Atoi(getEnv("SUMMARY_CACHE_TTL_SECONDS", "300"))
	if err != nil {
		return nil, fmt.Errorf("invalid SUMMARY_CACHE_TTL_SECONDS: %w", err)
	}

	return &AppConfig{
		ServerPort: serverPort,
		DB: db.Config{
			Host:     dbHost,
			Port:     dbPort,
			User:     dbUser,
			Password: dbPassword,
			DBName:   dbName,
			SSLMode:  dbSSLMode,
		},
		RedisAddr:     redisAddr,
		RedisPassword: redisPassword,
		SummaryTTL:    time.Duration(summaryTTLSeconds) * time.Second,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
