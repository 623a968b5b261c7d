package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Ingest    IngestConfig
	Converter ConverterConfig
	Metrics   MetricsConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// IngestConfig holds ingestion run configuration
type IngestConfig struct {
	RootDir      string
	Years        []string
	Months       []string
	Workers      int
	FilterCtime  bool
	LogDir       string
	BatchSize    int
	DrainTimeout time.Duration
	MinDepth     int
	TimeMargin   time.Duration

	// Offsets into the full file path locating the two-digit year and the
	// facility code, per the slip share naming convention.
	PathYearOffset   int
	PathObjectOffset int
}

// ConverterConfig holds the external pdf-to-text converter configuration
type ConverterConfig struct {
	Pdftotext string
	Timeout   time.Duration
}

// MetricsConfig holds the optional Prometheus listener configuration
type MetricsConfig struct {
	Addr string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Ingest: IngestConfig{
			RootDir:      getEnv("SLIP_DIR", ""),
			Years:        getEnvAsList("SLIP_YEARS", nil),
			Months:       getEnvAsList("SLIP_MONTHS", nil),
			Workers:      getEnvAsInt("SLIP_WORKERS", 4),
			FilterCtime:  getEnvAsBool("SLIP_FILTER_CTIME", false),
			LogDir:       getEnv("SLIP_LOG_DIR", "./logs"),
			BatchSize:    getEnvAsInt("SLIP_BATCH_SIZE", 100),
			DrainTimeout: getEnvAsDuration("SLIP_DRAIN_TIMEOUT", 10*time.Second),
			MinDepth:     getEnvAsInt("SLIP_MIN_DEPTH", 5),
			TimeMargin:   getEnvAsDuration("SLIP_TIME_MARGIN", 100000*time.Second),

			PathYearOffset:   getEnvAsInt("SLIP_YEAR_OFFSET", 26),
			PathObjectOffset: getEnvAsInt("SLIP_OBJECT_OFFSET", 32),
		},
		Converter: ConverterConfig{
			Pdftotext: getEnv("PDFTOTEXT_PATH", "pdftotext"),
			Timeout:   getEnvAsDuration("PDFTOTEXT_TIMEOUT", time.Minute),
		},
		Metrics: MetricsConfig{
			Addr: getEnv("METRICS_ADDR", ""),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
