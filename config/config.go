// Package config loads localekit settings from a .env file, an optional TOML or YAML file and
// LOCALEKIT_ prefixed environment variables, in that order of increasing precedence.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/kdsmith18542/localekit/assets"
	"github.com/kdsmith18542/localekit/i18n"
	"github.com/kdsmith18542/localekit/observability"
)

const (
	// EnvPrefix prefixes every environment variable.
	EnvPrefix = "LOCALEKIT_"
	// FileEnv names the variable holding the path of the optional config file.
	FileEnv = EnvPrefix + "CONFIG_FILE"
)

// Backends supported by NewSource.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
	BackendGCS   = "gcs"
	BackendAzure = "azure"
)

// Config holds all localekit configuration
type Config struct {
	Environment string `env:"ENVIRONMENT" toml:"environment" yaml:"environment"`
	LogLevel    string `env:"LOG_LEVEL" toml:"log_level" yaml:"log_level"`

	// Root is the locale directory of the local backend. Cloud backends use their prefix.
	Root      string   `env:"ROOT" toml:"root" yaml:"root"`
	Languages []string `env:"LANGUAGES" envSeparator:"," toml:"languages" yaml:"languages"`
	Backend   string   `env:"BACKEND" toml:"backend" yaml:"backend"`

	Watch         bool          `env:"WATCH" toml:"watch" yaml:"watch"`
	TickInterval  time.Duration `env:"TICK_INTERVAL" toml:"tick_interval" yaml:"tick_interval"`
	LoaderWorkers int           `env:"LOADER_WORKERS" toml:"loader_workers" yaml:"loader_workers"`
	MetricsAddr   string        `env:"METRICS_ADDR" toml:"metrics_addr" yaml:"metrics_addr"`

	S3            assets.S3Config      `envPrefix:"S3_" toml:"s3" yaml:"s3"`
	GCS           assets.GCSConfig     `envPrefix:"GCS_" toml:"gcs" yaml:"gcs"`
	Azure         assets.AzureConfig   `envPrefix:"AZURE_" toml:"azure" yaml:"azure"`
	Observability observability.Config `envPrefix:"OTEL_" toml:"observability" yaml:"observability"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Environment:   "development",
		LogLevel:      "info",
		Root:          "locales",
		Languages:     []string{"en-US"},
		Backend:       BackendLocal,
		TickInterval:  100 * time.Millisecond,
		LoaderWorkers: 8,
		Observability: observability.Config{
			ServiceName: "localekit",
		},
	}
}

// Load builds the configuration. file may be empty, in which case LOCALEKIT_CONFIG_FILE is
// consulted after .env has been loaded.
func Load(file string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := Default()

	if file == "" {
		file = os.Getenv(FileEnv)
	}
	if file != "" {
		if err := loadFile(file, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(file string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".toml":
		if _, err := toml.DecodeFile(file, cfg); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read config file %s: %w", file, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	default:
		return fmt.Errorf("unsupported config file format %q", filepath.Ext(file))
	}
	return nil
}

// Validate checks values that cannot be repaired with defaults.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendLocal:
		if c.Root == "" {
			return fmt.Errorf("root is required for the local backend")
		}
	case BackendS3, BackendGCS, BackendAzure:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", c.TickInterval)
	}
	if c.LoaderWorkers <= 0 {
		return fmt.Errorf("loader workers must be positive, got %d", c.LoaderWorkers)
	}
	if _, err := c.Tags(); err != nil {
		return err
	}
	return nil
}

// Tags parses Languages.
func (c *Config) Tags() ([]language.Tag, error) {
	return i18n.ParseTags(c.Languages)
}

// NewSource opens the configured backend. Every backend is wrapped so storage operations
// reach the global observer.
func NewSource(ctx context.Context, cfg *Config) (assets.Source, error) {
	var (
		src assets.Source
		err error
	)

	switch cfg.Backend {
	case BackendLocal:
		src = assets.NewLocal(cfg.Root)
	case BackendS3:
		src, err = assets.NewS3(cfg.S3)
	case BackendGCS:
		src, err = assets.NewGCS(ctx, cfg.GCS)
	case BackendAzure:
		src, err = assets.NewAzureBlob(cfg.Azure)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s backend: %w", cfg.Backend, err)
	}
	return assets.NewObservableSource(src, cfg.Backend), nil
}
