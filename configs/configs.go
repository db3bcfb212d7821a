// Package configs provides application configuration loaded from environment
// variables. All configuration is externalized for 12-factor app compliance.
package configs

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/sairaghavaa/sol-analytics/internal/errs"
)

// AppConfig holds all application configuration.
// Load it once at startup using AppLoad().
type AppConfig struct {
	// ServerPort is the HTTP listen port for the API.
	ServerPort string

	// DBDSN is the Postgres connection string.
	DBDSN string

	// Dune contains settings for the analytics-provider client.
	Dune DuneConfig

	// Cache contains read-cache settings.
	Cache CacheConfig

	// Ingest contains settings for the trader bulk-import pipeline.
	Ingest IngestConfig
}

// DuneConfig holds analytics-provider API settings.
type DuneConfig struct {
	// APIKey authenticates against the provider. Required for resyncs.
	APIKey string

	// BaseURL is the provider endpoint; the production default applies when
	// empty.
	BaseURL string

	// RequestsPerMinute caps outgoing query-result requests.
	RequestsPerMinute int
}

// CacheConfig holds read-cache settings.
type CacheConfig struct {
	// TTLSeconds is the validity window of cached aggregates.
	TTLSeconds int
}

// IngestConfig holds settings for trader bulk imports.
type IngestConfig struct {
	// ChunkSize is the number of rows per insert call.
	ChunkSize int

	// MaxInFlight is the maximum number of concurrent chunk inserts.
	MaxInFlight int

	// MaxRetries is the per-chunk retry limit for transient failures.
	MaxRetries int

	// DeletePageSize bounds each round of the paginated delete phase.
	DeletePageSize int
}

// getDatabaseDSN constructs the Postgres DSN from environment variables.
func getDatabaseDSN() string {
	dbUser := getEnv("POSTGRES_USER", "postgres")
	dbPassword := getEnv("POSTGRES_PASSWORD", "postgres")
	dbHost := getEnv("POSTGRES_HOST", "localhost")
	dbPort := getEnv("POSTGRES_PORT", "5432")
	dbName := getEnv("POSTGRES_DB", "sol_analytics")
	sslMode := getEnv("POSTGRES_SSLMODE", "disable")

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		dbHost, dbPort, dbUser, dbPassword, dbName, sslMode,
	)
}

// AppLoad loads all application configuration from environment variables.
// It attempts to load a .env file first (for local development).
// Call this once at application startup.
func AppLoad() *AppConfig {
	_ = godotenv.Load() // Ignore error - .env is optional

	return &AppConfig{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBDSN:      getDatabaseDSN(),
		Dune: DuneConfig{
			APIKey:            getEnv("DUNE_API_KEY", ""),
			BaseURL:           getEnv("DUNE_BASE_URL", ""),
			RequestsPerMinute: getEnvInt("DUNE_REQUESTS_PER_MINUTE", 40),
		},
		Cache: CacheConfig{
			TTLSeconds: getEnvInt("CACHE_TTL_SECONDS", 30),
		},
		Ingest: IngestConfig{
			ChunkSize:      getEnvInt("INGEST_CHUNK_SIZE", 10000),
			MaxInFlight:    getEnvInt("INGEST_MAX_IN_FLIGHT", 3),
			MaxRetries:     getEnvInt("INGEST_MAX_RETRIES", 3),
			DeletePageSize: getEnvInt("INGEST_DELETE_PAGE_SIZE", 50000),
		},
	}
}

// RequireDuneKey errors when the provider credential is absent. Sync commands
// call this at startup; read-only serving does not need the key.
func (c *AppConfig) RequireDuneKey() error {
	if c.Dune.APIKey == "" {
		return &errs.ConfigurationError{Key: "DUNE_API_KEY", Reason: "required for resync operations"}
	}
	return nil
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
