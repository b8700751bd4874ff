// Package config loads vitalcore settings from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"vitalcore/internal/infra/blob/s3"
)

// Config is the root configuration.
type Config struct {
	UserID          string                `yaml:"user_id"`
	Storage         StorageConfig         `yaml:"storage"`
	Blob            BlobConfig            `yaml:"blob"`
	Insight         InsightConfig         `yaml:"insight"`
	Recommendations RecommendationsConfig `yaml:"recommendations"`
	Logging         LoggingConfig         `yaml:"logging"`
}

// StorageConfig selects the persistent store.
type StorageConfig struct {
	Driver      string `yaml:"driver"` // memory, sqlite, postgres
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// BlobConfig selects where experiment archives are written.
type BlobConfig struct {
	Driver string    `yaml:"driver"` // fs, s3, memory
	FSRoot string    `yaml:"fs_root"`
	S3     s3.Config `yaml:"s3"`
}

// InsightConfig configures the text generator behind experiment insights.
type InsightConfig struct {
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
	Retries  int           `yaml:"retries"`
	Fallback string        `yaml:"fallback"`
}

// RecommendationsConfig tunes the recommendation window.
type RecommendationsConfig struct {
	Window     int `yaml:"window"`
	MaxResults int `yaml:"max_results"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		UserID: "local",
		Storage: StorageConfig{
			Driver:     "sqlite",
			SQLitePath: filepath.Join(".vitalcore", "vitalcore.db"),
		},
		Blob: BlobConfig{
			Driver: "fs",
			FSRoot: filepath.Join(".vitalcore", "archives"),
		},
		Insight: InsightConfig{
			Model:   "gemini-2.5-flash",
			Timeout: 10 * time.Second,
			Retries: 1,
		},
		Recommendations: RecommendationsConfig{
			Window:     7,
			MaxResults: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies VITALCORE_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	str := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	str("VITALCORE_USER", &c.UserID)
	str("VITALCORE_STORAGE_DRIVER", &c.Storage.Driver)
	str("VITALCORE_SQLITE_PATH", &c.Storage.SQLitePath)
	str("VITALCORE_POSTGRES_DSN", &c.Storage.PostgresDSN)
	str("VITALCORE_BLOB_DRIVER", &c.Blob.Driver)
	str("VITALCORE_BLOB_FS_ROOT", &c.Blob.FSRoot)
	str("VITALCORE_S3_BUCKET", &c.Blob.S3.Bucket)
	str("VITALCORE_S3_REGION", &c.Blob.S3.Region)
	str("VITALCORE_S3_ENDPOINT", &c.Blob.S3.Endpoint)
	str("VITALCORE_LOG_LEVEL", &c.Logging.Level)
	str("VITALCORE_INSIGHT_MODEL", &c.Insight.Model)

	if v := os.Getenv("VITALCORE_S3_PATH_STYLE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Blob.S3.PathStyle = b
		}
	}
	// The Gemini key may come from the conventional variable; ours wins.
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Insight.APIKey = key
	}
	str("VITALCORE_INSIGHT_API_KEY", &c.Insight.APIKey)
}

// Validate rejects unknown drivers and out-of-range settings.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("storage.postgres_dsn: required for postgres driver")
	}
	switch c.Blob.Driver {
	case "fs", "memory":
	case "s3":
		if c.Blob.S3.Bucket == "" {
			return fmt.Errorf("blob.s3.bucket: required for s3 driver")
		}
	default:
		return fmt.Errorf("blob.driver: unknown driver %q", c.Blob.Driver)
	}
	if c.Recommendations.Window <= 0 {
		return fmt.Errorf("recommendations.window: must be positive, got %d", c.Recommendations.Window)
	}
	if c.Insight.Timeout < 0 {
		return fmt.Errorf("insight.timeout: must not be negative")
	}
	if c.Insight.Retries < 0 {
		return fmt.Errorf("insight.retries: must not be negative")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}
	return nil
}
