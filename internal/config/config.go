package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every environment-sourced setting. It is built once in main
// and handed to the components that need it.
type Config struct {
	Port           string
	DatabaseURL    string
	MigrationsPath string

	VerifyToken        string
	MetaAccessToken    string
	InstagramAccountID string
	GraphAPIBaseURL    string

	APIBaseURL      string
	PublishSchedule string

	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	LogLevel  string
	LogFormat string

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads a .env file if one exists and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:               getenv("PORT", "8000"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		MigrationsPath:     getenv("MIGRATIONS_PATH", "migrations"),
		VerifyToken:        os.Getenv("INSTAGRAM_VERIFY_TOKEN"),
		MetaAccessToken:    os.Getenv("META_ACCESS_TOKEN"),
		InstagramAccountID: os.Getenv("INSTAGRAM_BUSINESS_ACCOUNT_ID"),
		GraphAPIBaseURL:    getenv("GRAPH_API_BASE_URL", "https://graph.facebook.com/v18.0"),
		APIBaseURL:         getenv("API_BASE_URL", "http://localhost:8000"),
		PublishSchedule:    os.Getenv("PUBLISH_SCHEDULE"),
		SendGridAPIKey:     os.Getenv("SENDGRID_API_KEY"),
		SendGridFromEmail:  os.Getenv("SENDGRID_FROM_EMAIL"),
		SendGridFromName:   getenv("SENDGRID_FROM_NAME", "Rental System"),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		LogFormat:          getenv("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.RateLimitRPS, err = strconv.ParseFloat(getenv("RATE_LIMIT_RPS", "1"), 64); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_RPS: %w", err)
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(getenv("RATE_LIMIT_BURST", "3")); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_BURST: %w", err)
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return nil, errors.New("rate limit values must be positive")
	}
	return cfg, nil
}

// ValidateServer checks the settings the API process cannot start without.
// The webhook verification secret has no default on purpose.
func (c *Config) ValidateServer() error {
	var missing []error
	if c.DatabaseURL == "" {
		missing = append(missing, errors.New("DATABASE_URL not set"))
	}
	if c.VerifyToken == "" {
		missing = append(missing, errors.New("INSTAGRAM_VERIFY_TOKEN not set"))
	}
	return errors.Join(missing...)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
