// Package config holds vani's runtime settings.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/vani/internal/debounce"
	"github.com/born-ml/vani/internal/parallel"
	"github.com/born-ml/vani/internal/pipeline"
	"github.com/born-ml/vani/internal/remote"
	"github.com/born-ml/vani/internal/state"
)

// EnvBaseURL overrides Config.BaseURL when set.
const EnvBaseURL = "VANI_BASE_URL"

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the complete vani configuration.
type Config struct {
	BaseURL string            `yaml:"base_url"`
	Corpora map[string]string `yaml:"corpora"` // corpus -> base URL
	Corpus  string            `yaml:"corpus"`  // Initially selected corpus

	Debounce       time.Duration `yaml:"debounce"`
	CopyFeedback   time.Duration `yaml:"copy_feedback"`
	InlineFeedback time.Duration `yaml:"inline_feedback"`
	Banner         time.Duration `yaml:"banner"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	ResolveWorkers int `yaml:"resolve_workers"`
	CacheSize      int `yaml:"cache_size"`

	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`

	// Companion server.
	Listen string `yaml:"listen"`
	Engine string `yaml:"engine"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BaseURL:        remote.DefaultBaseURL,
		Corpus:         string(remote.CorpusSmall),
		Debounce:       debounce.DefaultInterval,
		CopyFeedback:   state.ButtonFeedback,
		InlineFeedback: state.InlineFeedback,
		Banner:         state.BannerDuration,
		ResolveWorkers: parallel.DefaultConfig().NumWorkers,
		CacheSize:      pipeline.DefaultCacheSize,
		LogLevel:       "info",
		Listen:         "localhost:5000",
		Engine:         "example",
	}
}

// Load reads a YAML file over the defaults. An empty path loads nothing
// from disk. The environment override is applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values nothing can run with.
func (c *Config) Validate() error {
	if err := checkURL(c.BaseURL); err != nil {
		return fmt.Errorf("%w: base_url: %w", ErrInvalidConfig, err)
	}
	for name, u := range c.Corpora {
		if !remote.Corpus(name).Valid() {
			return fmt.Errorf("%w: corpora: unknown corpus %q", ErrInvalidConfig, name)
		}
		if err := checkURL(u); err != nil {
			return fmt.Errorf("%w: corpora.%s: %w", ErrInvalidConfig, name, err)
		}
	}
	if !remote.Corpus(c.Corpus).Valid() {
		return fmt.Errorf("%w: corpus: unknown corpus %q", ErrInvalidConfig, c.Corpus)
	}

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"debounce", c.Debounce},
		{"copy_feedback", c.CopyFeedback},
		{"inline_feedback", c.InlineFeedback},
		{"banner", c.Banner},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidConfig, d.name, d.d)
		}
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("%w: request_timeout must not be negative", ErrInvalidConfig)
	}
	if c.ResolveWorkers < 1 {
		return fmt.Errorf("%w: resolve_workers must be at least 1, got %d", ErrInvalidConfig, c.ResolveWorkers)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("%w: cache_size must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// Remote returns the client configuration.
func (c *Config) Remote() remote.Config {
	rc := remote.Config{
		BaseURL: c.BaseURL,
		Timeout: c.RequestTimeout,
	}
	if len(c.Corpora) > 0 {
		rc.Corpora = make(map[remote.Corpus]string, len(c.Corpora))
		for name, u := range c.Corpora {
			rc.Corpora[remote.Corpus(name)] = u
		}
	}
	return rc
}

// Parallel returns the per-token decode fan-out configuration.
func (c *Config) Parallel() parallel.Config {
	return parallel.Config{
		Enabled:    c.ResolveWorkers > 1,
		NumWorkers: c.ResolveWorkers,
	}
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme in %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
