// Package config loads engine configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"semflow/domain/core"
)

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig
	Analytics AnalyticsConfig
	Database  DatabaseConfig
	Upload    UploadConfig
}

// ServerConfig holds web server settings.
type ServerConfig struct {
	Port    string
	GinMode string
}

// AnalyticsConfig points at the external statistics service.
type AnalyticsConfig struct {
	URL           string
	HealthTimeout time.Duration
	RunTimeout    time.Duration
}

// DatabaseConfig holds selection-store settings. URL may be empty, in which
// case selections are kept in memory for the process lifetime.
type DatabaseConfig struct {
	URL string
}

// UploadConfig bounds dataset ingestion.
type UploadConfig struct {
	MaxBytes int64
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	analytics, err := loadAnalyticsConfig()
	if err != nil {
		return nil, fmt.Errorf("analytics configuration: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Analytics: *analytics,
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
		Upload: UploadConfig{
			MaxBytes: getEnvInt64OrDefault("UPLOAD_MAX_BYTES", 32<<20),
		},
	}, nil
}

func loadAnalyticsConfig() (*AnalyticsConfig, error) {
	url := os.Getenv("ANALYTICS_URL")
	if url == "" {
		return nil, fmt.Errorf("%w: ANALYTICS_URL is required", core.ErrMalformedInput)
	}
	return &AnalyticsConfig{
		URL:           url,
		HealthTimeout: getEnvDurationOrDefault("ANALYTICS_HEALTH_TIMEOUT", 5*time.Second),
		RunTimeout:    getEnvDurationOrDefault("ANALYTICS_RUN_TIMEOUT", 0),
	}, nil
}

// Addr returns the listen address for the HTTP server.
func (c ServerConfig) Addr() string {
	return ":" + c.Port
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
