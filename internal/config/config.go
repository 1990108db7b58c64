package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port            int
	LogLevel        string
	ShutdownTimeout time.Duration

	// External services
	TransactionsAPIURL string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Observability
	OTLPEndpoint   string
	TracingEnabled bool
	ServiceName    string

	// Forecasting
	MinTrainingMonths     int
	MaxForecastMonths     int
	DefaultForecastMonths int
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:            getEnvInt("PORT", 8080),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		TransactionsAPIURL: getEnv("TRANSACTIONS_API_URL", "http://localhost:8082"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
		ServiceName:    getEnv("OTEL_SERVICE_NAME", "expense-forecaster"),

		MinTrainingMonths:     getEnvInt("MIN_TRAINING_MONTHS", 3),
		MaxForecastMonths:     getEnvInt("MAX_FORECAST_MONTHS", 12),
		DefaultForecastMonths: getEnvInt("DEFAULT_FORECAST_MONTHS", 1),
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be in 1..65535, got %d", c.Port))
	}
	if c.MaxConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("MAX_CONCURRENCY must be positive, got %d", c.MaxConcurrency))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("MAX_RETRIES must not be negative, got %d", c.MaxRetries))
	}
	if c.MinTrainingMonths < 3 {
		errs = append(errs, fmt.Errorf("MIN_TRAINING_MONTHS must be at least 3, got %d", c.MinTrainingMonths))
	}
	if c.MaxForecastMonths < 1 {
		errs = append(errs, fmt.Errorf("MAX_FORECAST_MONTHS must be positive, got %d", c.MaxForecastMonths))
	}
	if c.DefaultForecastMonths < 1 || c.DefaultForecastMonths > c.MaxForecastMonths {
		errs = append(errs, fmt.Errorf("DEFAULT_FORECAST_MONTHS must be in 1..%d, got %d", c.MaxForecastMonths, c.DefaultForecastMonths))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
