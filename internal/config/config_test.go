package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 5, cfg.BreakerFailures)
	assert.Equal(t, 15, cfg.RainGridSize)
	assert.Equal(t, 50, cfg.RainDensity)
	assert.Zero(t, cfg.RainRefreshInterval)
	assert.Empty(t, cfg.MapStyleURL)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "en", cfg.DefaultLanguage)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "storm-snapshots", cfg.KafkaSnapshotTopic)
	assert.False(t, cfg.SnapshotPublishingEnabled())
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://storms.example.test/")
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("BREAKER_FAILURES", "2")
	t.Setenv("RAIN_GRID_SIZE", "25")
	t.Setenv("RAIN_DENSITY", "1000")
	t.Setenv("RAIN_REFRESH_INTERVAL", "5m")
	t.Setenv("MAP_STYLE_URL", "https://tiles.example.test/style.json")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("DEFAULT_LANGUAGE", "es")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SNAPSHOT_TOPIC", "custom-snapshots")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://storms.example.test", cfg.APIBaseURL)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 2, cfg.BreakerFailures)
	assert.Equal(t, 25, cfg.RainGridSize)
	assert.Equal(t, 1000, cfg.RainDensity)
	assert.Equal(t, 5*time.Minute, cfg.RainRefreshInterval)
	assert.Equal(t, "https://tiles.example.test/style.json", cfg.MapStyleURL)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "es", cfg.DefaultLanguage)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-snapshots", cfg.KafkaSnapshotTopic)
	assert.True(t, cfg.SnapshotPublishingEnabled())
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		key, value string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"FETCH_TIMEOUT", "bad"},
		{"FETCH_TIMEOUT", "0s"},
		{"RAIN_REFRESH_INTERVAL", "-1m"},
		{"BREAKER_FAILURES", "many"},
		{"BREAKER_FAILURES", "0"},
		{"RAIN_GRID_SIZE", "1"},
		{"RAIN_DENSITY", "5000"},
		{"API_BASE_URL", "not a url"},
		{"MAP_STYLE_URL", "style.json"},
		{"LOG_FORMAT", "xml"},
		{"DEFAULT_LANGUAGE", "fr"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.key)
		})
	}
}
