package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server Configuration
	Server ServerConfig

	// Upstream data API Configuration
	API APIConfig

	// Cookie Configuration
	Cookies CookieConfig

	// Campaign catalog Configuration
	Campaigns CampaignsConfig

	// Database Configuration (activity log)
	Database DatabaseConfig

	// Logging Configuration
	Logging LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Address        string
	AllowedOrigins []string
}

// APIConfig holds the data API backends
type APIConfig struct {
	URL               string   // Primary data API base URL
	SecondaryURL      string   // Optional alternate API for a single campaign
	SecondaryCampaign string   // Campaign code served by the secondary API
	SecondaryUsers    []string // Usernames that also log in to the secondary API
}

// CookieConfig holds cookie settings for the persisted tokens
type CookieConfig struct {
	Secret []byte // 32-byte key used to seal token cookies
	Secure bool
}

// CampaignsConfig points at the local campaign catalog
type CampaignsConfig struct {
	File string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL           string
	RetentionDays int // Days of activity history to keep
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	secret, err := cookieSecret(os.Getenv("COOKIE_SECRET"))
	if err != nil {
		return nil, err
	}

	retention, err := strconv.Atoi(getEnv("ACTIVITY_RETENTION_DAYS", "90"))
	if err != nil {
		return nil, fmt.Errorf("invalid ACTIVITY_RETENTION_DAYS: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Address:        getEnv("LISTEN_ADDRESS", ":8080"),
			AllowedOrigins: parseCommaSeparatedList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		API: APIConfig{
			URL:               strings.TrimRight(os.Getenv("DASHBOARD_API_URL"), "/"),
			SecondaryURL:      strings.TrimRight(os.Getenv("SECONDARY_API_URL"), "/"),
			SecondaryCampaign: getEnv("SECONDARY_CAMPAIGN_CODE", "pmn01a"),
			SecondaryUsers:    parseCommaSeparatedList(os.Getenv("SECONDARY_LOGIN_USERS")),
		},
		Cookies: CookieConfig{
			Secret: secret,
			Secure: getEnv("COOKIE_SECURE", "true") == "true",
		},
		Campaigns: CampaignsConfig{
			File: getEnv("CAMPAIGNS_FILE", "campaigns.yaml"),
		},
		Database: DatabaseConfig{
			URL:           getEnv("DATABASE_URL", "campaignboard.sqlite"),
			RetentionDays: retention,
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required settings
func (c *Config) Validate() error {
	if c.API.URL == "" {
		return errors.New("DASHBOARD_API_URL is required")
	}
	if len(c.Cookies.Secret) != 32 {
		return errors.New("cookie secret must be 32 bytes")
	}
	if c.Database.RetentionDays < 1 {
		return errors.New("ACTIVITY_RETENTION_DAYS must be at least 1")
	}
	return nil
}

// cookieSecret decodes COOKIE_SECRET (base64, 32 bytes). An empty value falls back to an
// all-zero dev key so local runs work without setup.
func cookieSecret(raw string) ([]byte, error) {
	if raw == "" {
		return make([]byte, 32), nil
	}
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid COOKIE_SECRET: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("COOKIE_SECRET must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseCommaSeparatedList splits a comma-separated string into a slice
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
