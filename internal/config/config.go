package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	APIBaseURL      string        `env:"API_BASE_URL" validate:"required,url"`
	FetchTimeout    time.Duration `env:"FETCH_TIMEOUT" validate:"gt=0"`
	BreakerFailures int           `env:"BREAKER_FAILURES" validate:"min=1"`

	RainGridSize        int           `env:"RAIN_GRID_SIZE" validate:"min=2,max=100"`
	RainDensity         int           `env:"RAIN_DENSITY" validate:"min=2,max=1000"`
	RainRefreshInterval time.Duration `env:"RAIN_REFRESH_INTERVAL" validate:"gte=0"`
	MapStyleURL         string        `env:"MAP_STYLE_URL" validate:"omitempty,url"`

	HTTPAddr        string        `env:"HTTP_ADDR" validate:"required"`
	LogLevel        string        `env:"LOG_LEVEL"`
	LogFormat       string        `env:"LOG_FORMAT" validate:"oneof=json text"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
	DefaultLanguage string        `env:"DEFAULT_LANGUAGE" validate:"oneof=en es"`

	// Snapshot publishing is enabled when at least one broker is configured.
	KafkaBrokers       []string `env:"KAFKA_BROKERS"`
	KafkaSnapshotTopic string   `env:"KAFKA_SNAPSHOT_TOPIC" validate:"required"`
}

// SnapshotPublishingEnabled reports whether snapshots go to Kafka.
func (c *Config) SnapshotPublishingEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from the environment (and an optional .env file),
// applying defaults where unset.
func Load() (*Config, error) {
	// A missing .env is fine; existing environment variables always win.
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parseDuration("RAIN_REFRESH_INTERVAL", "0s")
	if err != nil {
		return nil, err
	}
	breakerFailures, err := parseInt("BREAKER_FAILURES", 5)
	if err != nil {
		return nil, err
	}
	gridSize, err := parseInt("RAIN_GRID_SIZE", 15)
	if err != nil {
		return nil, err
	}
	density, err := parseInt("RAIN_DENSITY", 50)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		APIBaseURL:      strings.TrimRight(sharedcfg.EnvOrDefault("API_BASE_URL", "http://localhost:8000"), "/"),
		FetchTimeout:    fetchTimeout,
		BreakerFailures: breakerFailures,

		RainGridSize:        gridSize,
		RainDensity:         density,
		RainRefreshInterval: refreshInterval,
		MapStyleURL:         os.Getenv("MAP_STYLE_URL"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		DefaultLanguage: sharedcfg.EnvOrDefault("DEFAULT_LANGUAGE", "en"),

		KafkaBrokers:       brokers,
		KafkaSnapshotTopic: sharedcfg.EnvOrDefault("KAFKA_SNAPSHOT_TOPIC", "storm-snapshots"),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks struct tags and reports fields by their env variable name.
func validate(cfg *Config) error {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid %s: failed %q check", verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
