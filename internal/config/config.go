package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends understood by bootstrap.
const (
	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	StoreBackend         string
	AppointmentTableName string
	DatabaseURL          string
	FixturePath          string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	RedisAddr           string
	RedisPassword       string
	RedisTLS            bool
	AppointmentCacheTTL time.Duration

	CORSAllowedOrigins []string
	BusinessTimezone   string

	// Availability query limits
	AvailabilityMaxRangeDays     int
	AvailabilityStaffConcurrency int

	// Per-client request limit; RateLimitRPS <= 0 disables it.
	RateLimitRPS   float64
	RateLimitBurst int

	MetricsEnabled bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreBackend:         strings.ToLower(getEnv("STORE_BACKEND", BackendDynamoDB)),
		AppointmentTableName: getEnv("APPOINTMENT_TABLE_NAME", "appointment-table"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		FixturePath:          getEnv("FIXTURE_PATH", "testdata/fixture.json"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisTLS:            getEnvAsBool("REDIS_TLS", false),
		AppointmentCacheTTL: getEnvAsDuration("APPOINTMENT_CACHE_TTL", 2*time.Minute),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		BusinessTimezone:   getEnv("BUSINESS_TIMEZONE", "UTC"),

		AvailabilityMaxRangeDays:     getEnvAsInt("AVAILABILITY_MAX_RANGE_DAYS", 62),
		AvailabilityStaffConcurrency: getEnvAsInt("AVAILABILITY_STAFF_CONCURRENCY", 4),

		RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 40),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}
}

// Validate reports settings the selected store backend cannot start without.
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case BackendDynamoDB:
		if c.AppointmentTableName == "" {
			errs = append(errs, errors.New("APPOINTMENT_TABLE_NAME is required for the dynamodb backend"))
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
		}
	case BackendMemory:
		if c.FixturePath == "" {
			errs = append(errs, errors.New("FIXTURE_PATH is required for the memory backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	if _, err := time.LoadLocation(c.BusinessTimezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid BUSINESS_TIMEZONE %q: %w", c.BusinessTimezone, err))
	}
	if c.AvailabilityMaxRangeDays <= 0 {
		errs = append(errs, fmt.Errorf("AVAILABILITY_MAX_RANGE_DAYS must be positive, got %d", c.AvailabilityMaxRangeDays))
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when rate limiting, got %d", c.RateLimitBurst))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(errs...))
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
