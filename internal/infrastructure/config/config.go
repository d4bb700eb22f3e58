// internal/infrastructure/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"airmiles-service/internal/usecase"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreSQLite   = "sqlite"
)

// Record source modes
const (
	SourceDemo = "demo"
	SourceHTTP = "http"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string
	LogLevel   string

	// Server
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string

	// Store
	StoreDriver string
	PostgresURI string
	SQLitePath  string

	// MongoDB
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// Search pipeline
	FreshnessWindow time.Duration
	FreshnessPolicy string
	DefaultCarrier  string

	// Record source
	SourceMode     string
	SourceURL      string
	SourceToken    string
	SourceCarriers []string
	DemoMinDelay   time.Duration
	DemoMaxDelay   time.Duration

	// Background jobs
	PurgeInterval      time.Duration
	RefreshInterval    time.Duration
	RefreshBatchSize   int
	RefreshHorizonDays int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		AppVersion: getEnv("APP_VERSION", "1.0.0"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		Port:           getEnv("PORT", "3001"),
		ReadTimeout:    getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getEnvAsDuration("WRITE_TIMEOUT", 30*time.Second),
		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StorePostgres)),
		PostgresURI: getEnv("POSTGRES_DSN", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "airmiles.db"),

		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "airmiles"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		FreshnessWindow: getEnvAsDuration("FRESHNESS_WINDOW", 4*time.Hour),
		FreshnessPolicy: strings.ToLower(getEnv("FRESHNESS_POLICY", usecase.PolicyRecord)),
		DefaultCarrier:  strings.ToUpper(getEnv("DEFAULT_CARRIER", "UA")),

		SourceMode:     strings.ToLower(getEnv("SOURCE_MODE", SourceDemo)),
		SourceURL:      getEnv("SOURCE_URL", ""),
		SourceToken:    getEnv("SOURCE_TOKEN", ""),
		SourceCarriers: getEnvAsList("SOURCE_CARRIERS", []string{"UA", "BA", "AA", "DL", "AC"}),
		DemoMinDelay:   getEnvAsDuration("DEMO_MIN_DELAY", time.Second),
		DemoMaxDelay:   getEnvAsDuration("DEMO_MAX_DELAY", 3*time.Second),

		PurgeInterval:      getEnvAsDuration("PURGE_INTERVAL", time.Hour),
		RefreshInterval:    getEnvAsDuration("REFRESH_INTERVAL", 0),
		RefreshBatchSize:   getEnvAsInt("REFRESH_BATCH_SIZE", 5),
		RefreshHorizonDays: getEnvAsInt("REFRESH_HORIZON_DAYS", 30),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects combinations the service cannot start with
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StorePostgres:
		if c.PostgresURI == "" {
			return fmt.Errorf("POSTGRES_DSN is required when STORE_DRIVER=%s", StorePostgres)
		}
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGODB_DSN is required when STORE_DRIVER=%s", StoreMongo)
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE_DRIVER=%s", StoreSQLite)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.FreshnessPolicy {
	case usecase.PolicyRecord, usecase.PolicyWindow:
	default:
		return fmt.Errorf("unknown FRESHNESS_POLICY %q", c.FreshnessPolicy)
	}

	switch c.SourceMode {
	case SourceDemo:
	case SourceHTTP:
		if c.SourceURL == "" {
			return fmt.Errorf("SOURCE_URL is required when SOURCE_MODE=%s", SourceHTTP)
		}
	default:
		return fmt.Errorf("unknown SOURCE_MODE %q", c.SourceMode)
	}

	if c.FreshnessWindow <= 0 {
		return fmt.Errorf("FRESHNESS_WINDOW must be positive, got %s", c.FreshnessWindow)
	}
	if c.DefaultCarrier == "" {
		return fmt.Errorf("DEFAULT_CARRIER must not be empty")
	}
	if c.DemoMaxDelay < c.DemoMinDelay {
		return fmt.Errorf("DEMO_MAX_DELAY (%s) is below DEMO_MIN_DELAY (%s)", c.DemoMaxDelay, c.DemoMinDelay)
	}

	return nil
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("90s", "4h") or bare seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
