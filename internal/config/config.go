package config

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/anime-shed/image-quality-go/internal/bitmap"
)

const (
	// EnvPrefix prefixes every environment override, e.g. IQA_PORT.
	EnvPrefix = "IQA_"
	// EnvConfigFile names the YAML file layered between defaults and env.
	EnvConfigFile = "IQA_CONFIG"
)

type Config struct {
	Host               string        `koanf:"host"`
	Port               string        `koanf:"port"`
	RequestTimeout     time.Duration `koanf:"request_timeout"`
	ImageFetchTimeout  time.Duration `koanf:"image_fetch_timeout"`
	MaxRequestBodySize int64         `koanf:"max_request_body_size"`
	MaxBatchSize       int           `koanf:"max_batch_size"`
	MaxImagePixels     int           `koanf:"max_image_pixels"`
	LogLevel           string        `koanf:"log_level"`

	// Engine settings. Zero values keep the preset's own value.
	Preset       string  `koanf:"preset"`
	AnalysisSize int     `koanf:"analysis_size"`
	LowCut       float64 `koanf:"low_cut"`
	HighCut      float64 `koanf:"high_cut"`
	EdgeLow      float64 `koanf:"edge_low"`
	EdgeHigh     float64 `koanf:"edge_high"`
	RulesFile    string  `koanf:"rules_file"`
	Workers      int     `koanf:"workers"`

	AzureAccount   string   `koanf:"azure_account"`
	AzureKey       string   `koanf:"azure_key"`
	AllowedHosts   []string `koanf:"allowed_hosts"`
	MetricsEnabled bool     `koanf:"metrics_enabled"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Host:               "0.0.0.0",
		Port:               "8080",
		RequestTimeout:     30 * time.Second,
		ImageFetchTimeout:  15 * time.Second,
		MaxRequestBodySize: 10 * 1024 * 1024, // 10MB
		MaxBatchSize:       50,
		MaxImagePixels:     bitmap.DefaultMaxPixels,
		LogLevel:           "info",
		Preset:             "optimized",
		Workers:            4,
		MetricsEnabled:     true,
	}
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// Load layers defaults, the YAML file named by IQA_CONFIG and IQA_* env vars.
func Load(ctx context.Context) (*Config, error) {
	return LoadFile(ctx, os.Getenv(EnvConfigFile))
}

// LoadFile is Load with an explicit file path; an empty path skips the file.
func LoadFile(_ context.Context, path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// IQA_MAX_BATCH_SIZE -> max_batch_size. Underscores are kept to match
	// the flat koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := *Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks server limits. Engine settings are validated when the
// engine is built.
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid port: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("max_request_body_size must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be > 0 (got %d)", c.MaxBatchSize)
	}
	if c.MaxImagePixels <= 0 {
		return fmt.Errorf("max_image_pixels must be > 0 (got %d)", c.MaxImagePixels)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s)",
			c.RequestTimeout, c.ImageFetchTimeout)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0 (got %d)", c.Workers)
	}
	return nil
}
