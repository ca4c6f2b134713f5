package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the client
type Config struct {
	// Account service configuration
	API APIConfig

	// Logging Configuration
	Logging LoggingConfig
}

// APIConfig holds account service connection configuration
type APIConfig struct {
	URL     string
	Timeout time.Duration
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

	// Account service URL - default to local dev service, allow override
	apiURL := os.Getenv("NOTEWARD_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:3001"
	}

	// Request timeout in seconds
	timeout := 10 * time.Second
	if raw := os.Getenv("NOTEWARD_TIMEOUT_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
	}

	// Logging configuration - console format suits an interactive client
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "warn"
	}

	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "console"
	}

	return &Config{
		API: APIConfig{
			URL:     apiURL,
			Timeout: timeout,
		},
		Logging: LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
	}, nil
}
