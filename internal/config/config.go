package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment selectors for the Moj Elektro metering-data API.
const (
	EnvProduction = "production"
	EnvTest       = "test"
)

// Config holds all application configuration
type Config struct {
	ServiceName string
	ServicePort int
	Database    DatabaseConfig
	MojElektro  MojElektroConfig
	Ingest      IngestConfig
	RabbitMQ    RabbitMQConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// MojElektroConfig holds credentials and endpoint selection for the
// Moj Elektro metering-data API.
type MojElektroConfig struct {
	APIKey      string
	Environment string // production or test
	BaseURL     string // optional override, mainly for tests
}

// IngestConfig holds settings for the one-shot ingestion run
type IngestConfig struct {
	TargetGSRN      string
	ReadingTypeCode string
	SeedUserEmail   string
	StartDate       string // calendar date, YYYY-MM-DD
	FetchDelay      time.Duration
}

// RabbitMQConfig holds optional ingest-event publishing settings.
// Publishing is disabled when URL is empty.
type RabbitMQConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "home-energy-dashboard"),
		ServicePort: getEnvAsInt("SERVICE_PORT", 8080),
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		MojElektro: MojElektroConfig{
			APIKey:      getEnv("MOJ_ELEKTRO_API_KEY", ""),
			Environment: getEnv("MOJ_ELEKTRO_ENV", EnvProduction),
			BaseURL:     getEnv("MOJ_ELEKTRO_BASE_URL", ""),
		},
		Ingest: IngestConfig{
			TargetGSRN:      getEnv("TARGET_GSRN", ""),
			ReadingTypeCode: getEnv("TARGET_READING_TYPE_CODE", ""),
			SeedUserEmail:   getEnv("SEED_USER_EMAIL", "owner@localhost"),
			StartDate:       getEnv("SEED_START_DATE", "2025-04-11"),
			FetchDelay:      getEnvAsDuration("INGEST_FETCH_DELAY", 500*time.Millisecond),
		},
		RabbitMQ: RabbitMQConfig{
			URL:        getEnv("RABBITMQ_URL", ""),
			Exchange:   getEnv("RABBITMQ_INGEST_EXCHANGE", "home-energy.ingest.events.exchange"),
			RoutingKey: getEnv("RABBITMQ_INGEST_ROUTING_KEY", "meter.readings.ingested"),
		},
	}

	if cfg.MojElektro.Environment != EnvProduction && cfg.MojElektro.Environment != EnvTest {
		return nil, fmt.Errorf("MOJ_ELEKTRO_ENV must be %q or %q, got %q", EnvProduction, EnvTest, cfg.MojElektro.Environment)
	}

	// Validate required fields
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set in environment variables")
	}

	return cfg, nil
}

// ValidateIngest checks the fields only the ingestion run requires.
// A missing credential or identifier here aborts before any work starts.
func (c *Config) ValidateIngest() error {
	if c.MojElektro.APIKey == "" {
		return fmt.Errorf("MOJ_ELEKTRO_API_KEY is required but not set in environment variables")
	}
	if c.Ingest.TargetGSRN == "" {
		return fmt.Errorf("TARGET_GSRN is required but not set in environment variables")
	}
	if c.Ingest.ReadingTypeCode == "" {
		return fmt.Errorf("TARGET_READING_TYPE_CODE is required but not set in environment variables")
	}
	if _, err := time.Parse("2006-01-02", c.Ingest.StartDate); err != nil {
		return fmt.Errorf("SEED_START_DATE must be a YYYY-MM-DD date: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
