// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	DatabaseURL     string
	LogLevel        string
	BaseCurrency    string
	ExchangeAPIURL  string
	RefreshInterval time.Duration
	RefreshEnabled  bool
	GuestSeedOnBoot bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		BaseCurrency:   strings.ToUpper(strings.TrimSpace(os.Getenv("BASE_CURRENCY"))),
		ExchangeAPIURL: os.Getenv("EXCHANGE_API_URL"),
	}

	if cfg.BaseCurrency == "" {
		cfg.BaseCurrency = "USD"
	}

	cfg.RefreshEnabled = os.Getenv("RATE_REFRESH_ENABLED") != "false"
	cfg.RefreshInterval = 12 * time.Hour
	if intervalStr := os.Getenv("RATE_REFRESH_INTERVAL_HOURS"); intervalStr != "" {
		if h, err := strconv.Atoi(intervalStr); err == nil && h > 0 {
			cfg.RefreshInterval = time.Duration(h) * time.Hour
		}
	}

	cfg.GuestSeedOnBoot = os.Getenv("GUEST_SEED_ON_BOOT") == "true"

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	var errs []string

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if len(c.BaseCurrency) != 3 {
		errs = append(errs, "BASE_CURRENCY must be a 3-letter code")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
