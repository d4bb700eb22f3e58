package config

import (
	"testing"
	"time"

	"airmiles-service/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, 4*time.Hour, cfg.FreshnessWindow)
	assert.Equal(t, usecase.PolicyRecord, cfg.FreshnessPolicy)
	assert.Equal(t, "UA", cfg.DefaultCarrier)
	assert.Equal(t, SourceDemo, cfg.SourceMode)
	assert.Equal(t, time.Second, cfg.DemoMinDelay)
	assert.Equal(t, 3*time.Second, cfg.DemoMaxDelay)
	assert.Equal(t, time.Duration(0), cfg.RefreshInterval)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "airmiles.db", cfg.SQLitePath)
	assert.Equal(t, []string{"UA", "BA", "AA", "DL", "AC"}, cfg.SourceCarriers)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MONGO")
	t.Setenv("MONGODB_DSN", "mongodb://db:27017")
	t.Setenv("FRESHNESS_WINDOW", "90m")
	t.Setenv("FRESHNESS_POLICY", "window")
	t.Setenv("DEFAULT_CARRIER", "ba")
	t.Setenv("READ_TIMEOUT", "20")
	t.Setenv("REFRESH_BATCH_SIZE", "12")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000, https://miles.example.com")
	t.Setenv("SOURCE_CARRIERS", "UA,BA")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StoreMongo, cfg.StoreDriver)
	assert.Equal(t, 90*time.Minute, cfg.FreshnessWindow)
	assert.Equal(t, usecase.PolicyWindow, cfg.FreshnessPolicy)
	assert.Equal(t, "BA", cfg.DefaultCarrier)
	assert.Equal(t, 20*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 12, cfg.RefreshBatchSize)
	assert.Equal(t, []string{"http://localhost:3000", "https://miles.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, []string{"UA", "BA"}, cfg.SourceCarriers)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "postgres without dsn", env: map[string]string{"STORE_DRIVER": "postgres", "POSTGRES_DSN": ""}},
		{name: "unknown driver", env: map[string]string{"STORE_DRIVER": "redis"}},
		{name: "unknown policy", env: map[string]string{"STORE_DRIVER": "sqlite", "FRESHNESS_POLICY": "route"}},
		{name: "http source without url", env: map[string]string{"STORE_DRIVER": "sqlite", "SOURCE_MODE": "http", "SOURCE_URL": ""}},
		{name: "negative freshness", env: map[string]string{"STORE_DRIVER": "sqlite", "FRESHNESS_WINDOW": "-1h"}},
		{name: "inverted demo delay", env: map[string]string{"STORE_DRIVER": "sqlite", "DEMO_MIN_DELAY": "5s", "DEMO_MAX_DELAY": "1s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
