// Package config manages application configuration
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"

	// Flat-file data directory (collections plus uploaded images)
	DataDir string

	// The single administrator. Ownership is derived from this address at
	// check time and never stored on a user record.
	OwnerEmail string

	// Security
	SecretKey       string // for session token signing
	SessionDuration time.Duration

	// Shared site password. Empty disables the gate. May hold a bcrypt
	// hash instead of plaintext.
	GatePassword string

	// When true, new members need owner approval before ordering.
	RequireApproval bool

	// Upload limit for item images, in bytes.
	MaxUploadBytes int64

	// Browser origins allowed to call the API with credentials.
	AllowedOrigins []string

	// Outbound mail. Host left empty disables notifications.
	SMTP SMTPConfig
}

// SMTPConfig describes the outbound mail relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	SSL      bool
}

// Enabled reports whether enough of the relay is configured to send mail.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != ""
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is overlaid first when present.
func Load() *Config {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	return &Config{
		Port:            getEnv("DELPH_PORT", "8080"),
		Environment:     getEnv("DELPH_ENV", "development"),
		DataDir:         getEnv("DELPH_DATA_DIR", "data"),
		OwnerEmail:      getEnv("DELPH_OWNER_EMAIL", ""),
		SecretKey:       getEnv("DELPH_SECRET_KEY", "dev-secret-key-change-in-production"),
		SessionDuration: getDurationEnv("DELPH_SESSION_DURATION", 30*24*time.Hour),
		GatePassword:    getEnv("DELPH_GATE_PASSWORD", ""),
		RequireApproval: getBoolEnv("DELPH_REQUIRE_APPROVAL", false),
		MaxUploadBytes:  getInt64Env("DELPH_MAX_UPLOAD_BYTES", 5<<20),
		AllowedOrigins:  getListEnv("DELPH_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		SMTP: SMTPConfig{
			Host:     getEnv("DELPH_SMTP_HOST", ""),
			Port:     getIntEnv("DELPH_SMTP_PORT", 587),
			Username: getEnv("DELPH_SMTP_USER", ""),
			Password: getEnv("DELPH_SMTP_PASSWORD", ""),
			From:     getEnv("DELPH_SMTP_FROM", ""),
			SSL:      getBoolEnv("DELPH_SMTP_SSL", false),
		},
	}
}

// IsOwner reports whether email belongs to the configured owner. The
// comparison ignores case and surrounding whitespace; with no owner
// configured nobody qualifies.
func (c *Config) IsOwner(email string) bool {
	owner := strings.TrimSpace(c.OwnerEmail)
	if owner == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(email), owner)
}

// GateEnabled reports whether the shared site password is turned on.
func (c *Config) GateEnabled() bool {
	return c.GatePassword != ""
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
