package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer     string        // Issuer claim for tokens (default: concierge-auth)
	SessionTTL time.Duration // Session token lifetime (default: 7 days)

	KeyFile      string // Optional: path to Ed25519 PKCS8 PEM key (empty = ephemeral key per start)
	DatabaseFile string // Path to SQLite database file (default: ./concierge.db)
	PepperFile   string // Path to file containing pepper for password hashing (default: ./pepper)

	// Bootstrap admin credentials; only used when the accounts table is empty.
	AdminUsername string
	AdminEmail    string
	AdminPassword string

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired-code cleanup interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:     getEnvOrDefault("AUTH_ISSUER", "concierge-auth"),
		SessionTTL: getEnvDurationOrDefault("AUTH_SESSION_TTL", 7*24*time.Hour),

		KeyFile:      os.Getenv("AUTH_KEY_FILE"), // Optional
		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "concierge.db"),
		PepperFile:   getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),

		AdminUsername: os.Getenv("AUTH_ADMIN_USERNAME"),
		AdminEmail:    os.Getenv("AUTH_ADMIN_EMAIL"),
		AdminPassword: os.Getenv("AUTH_ADMIN_PASSWORD"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
