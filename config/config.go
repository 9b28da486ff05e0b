// Package config reads the service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yeremiapane/restaurant-floor/utils"
)

type Config struct {
	Port    string
	GinMode string

	DBDriver string
	DBDSN    string

	JWTSecret string

	StoreTimeout time.Duration
	StoreRetries uint64

	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads .env when present and then the process environment. Unset
// variables fall back to development defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Debugf("no .env file loaded: %v", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		GinMode:   getEnv("GIN_MODE", "debug"),
		DBDriver:  strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:     getEnv("DB_DSN", "restaurant_floor.db"),
		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS",
			"http://localhost:3000,http://localhost:8080")),
	}

	var err error
	if cfg.StoreTimeout, err = time.ParseDuration(getEnv("STORE_TIMEOUT", "5s")); err != nil {
		return nil, fmt.Errorf("STORE_TIMEOUT: %w", err)
	}
	if cfg.StoreRetries, err = strconv.ParseUint(getEnv("STORE_RETRIES", "3"), 10, 64); err != nil {
		return nil, fmt.Errorf("STORE_RETRIES: %w", err)
	}
	if cfg.RateLimitRPS, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "50"), 64); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_RPS: %w", err)
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(getEnv("RATE_LIMIT_BURST", "100")); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_BURST: %w", err)
	}

	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "mysql" {
		return nil, fmt.Errorf("DB_DRIVER must be sqlite or mysql, got %q", cfg.DBDriver)
	}
	if cfg.StoreTimeout <= 0 {
		return nil, fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	if cfg.GinMode == "release" && os.Getenv("JWT_SECRET") == "" {
		return nil, fmt.Errorf("JWT_SECRET is required in release mode")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
