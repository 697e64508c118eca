package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database      DatabaseConfig
	Storage       StorageConfig
	Import        ImportConfig
	Worker        WorkerConfig
	Observability ObservabilityConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type StorageConfig struct {
	LocalPath string
}

// ImportConfig carries the tunables of the import pipeline. Defaults match
// the documented pipeline behavior; override via environment for tuning.
type ImportConfig struct {
	MaxFileSizeBytes   int64
	DuplicateThreshold float64
	DuplicateWindow    int // days on either side of the candidate date
	ProgressBatchRows  int
	RetentionDays      int
}

type WorkerConfig struct {
	PollInterval time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "stronghold-dev"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Storage: StorageConfig{
			LocalPath: getEnv("STORAGE_LOCAL_PATH", "./uploads"),
		},
		Import: ImportConfig{
			MaxFileSizeBytes:   int64(getEnvAsInt("IMPORT_MAX_FILE_SIZE_BYTES", 50*1024*1024)),
			DuplicateThreshold: getEnvAsFloat("IMPORT_DUPLICATE_THRESHOLD", 0.85),
			DuplicateWindow:    getEnvAsInt("IMPORT_DUPLICATE_WINDOW_DAYS", 3),
			ProgressBatchRows:  getEnvAsInt("IMPORT_PROGRESS_BATCH_ROWS", 100),
			RetentionDays:      getEnvAsInt("IMPORT_RETENTION_DAYS", 90),
		},
		Worker: WorkerConfig{
			PollInterval: getEnvAsDuration("WORKER_POLL_INTERVAL", 5*time.Second),
			MaxAttempts:  getEnvAsInt("WORKER_MAX_ATTEMPTS", 3),
			RetryBackoff: getEnvAsDuration("WORKER_RETRY_BACKOFF", 60*time.Second),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
	}

	if cfg.Import.MaxFileSizeBytes <= 0 {
		return nil, fmt.Errorf("IMPORT_MAX_FILE_SIZE_BYTES must be positive")
	}
	if cfg.Import.DuplicateThreshold <= 0 || cfg.Import.DuplicateThreshold > 1 {
		return nil, fmt.Errorf("IMPORT_DUPLICATE_THRESHOLD must be in (0, 1]")
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
