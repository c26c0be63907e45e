// Package config loads streamdown configuration from YAML files with
// environment variable overrides.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration values exported for documentation and validation
const (
	DefaultChunkMode      = "random"
	DefaultMinPassthrough = 16
	DefaultMaxChunkLength = 20
	DefaultChunkDelayMS   = 18
	DefaultRenderTheme    = "auto"
	DefaultRenderWidth    = 80
	DefaultServerBind     = "127.0.0.1:8632"
	DefaultLogLevel       = "info"
	MinChunkLength        = 4
)

// Config represents the complete streamdown configuration
type Config struct {
	Segmenter SegmenterConfig `yaml:"segmenter"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Render    RenderConfig    `yaml:"render"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SegmenterConfig controls reasoning tag recognition
type SegmenterConfig struct {
	// ExtraTags adds bare tag pairs recognized as reasoning blocks, on
	// top of the built-in <think> and <reasoning> pairs.
	ExtraTags []TagPairConfig `yaml:"extra_tags"`
	// DisableDefaultTags drops the built-in pairs entirely.
	DisableDefaultTags bool `yaml:"disable_default_tags"`
}

// TagPairConfig names one open/close tag pair
type TagPairConfig struct {
	Open  string `yaml:"open"`
	Close string `yaml:"close"`
}

// ChunkerConfig controls delta re-pacing
type ChunkerConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Mode           string `yaml:"mode"` // random or word
	MinPassthrough int    `yaml:"min_passthrough"`
	MaxChunkLength int    `yaml:"max_chunk_length"`
	DelayMS        int    `yaml:"delay_ms"`
}

// Delay returns the inter-chunk delay as a duration.
func (c ChunkerConfig) Delay() time.Duration {
	return time.Duration(c.DelayMS) * time.Millisecond
}

// RenderConfig controls terminal markdown rendering
type RenderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Theme   string `yaml:"theme"` // auto, dark, light, notty
	Width   int    `yaml:"width"`
}

// ServerConfig controls the demo HTTP server
type ServerConfig struct {
	Bind           string `yaml:"bind"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// LoggingConfig controls structured diagnostics output
type LoggingConfig struct {
	Dir      string `yaml:"dir"`
	Level    string `yaml:"level"`
	Disabled bool   `yaml:"disabled"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Chunker: ChunkerConfig{
			Enabled:        true,
			Mode:           DefaultChunkMode,
			MinPassthrough: DefaultMinPassthrough,
			MaxChunkLength: DefaultMaxChunkLength,
			DelayMS:        DefaultChunkDelayMS,
		},
		Render: RenderConfig{
			Enabled: true,
			Theme:   DefaultRenderTheme,
			Width:   DefaultRenderWidth,
		},
		Server: ServerConfig{
			Bind:           DefaultServerBind,
			TimeoutSeconds: 30,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Load loads configuration from default locations with proper precedence:
// built-in defaults, then ~/.streamdown/config.yaml, then
// ./.streamdown/config.yaml, then environment variables.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	if home != "" {
		userConfigPath := filepath.Join(home, ".streamdown", "config.yaml")
		if err := loadAndMerge(cfg, userConfigPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading user config: %w", err)
		}
	}

	projectConfigPath := filepath.Join(".", ".streamdown", "config.yaml")
	if err := loadAndMerge(cfg, projectConfigPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := loadAndMerge(cfg, path); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadAndMerge overlays the YAML file at path onto cfg. Fields absent
// from the file keep their current values.
func loadAndMerge(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides
func applyEnvOverrides(cfg *Config) {
	if val, ok := envBool("STREAMDOWN_CHUNK_ENABLED"); ok {
		cfg.Chunker.Enabled = val
	}
	if v := os.Getenv("STREAMDOWN_CHUNK_MODE"); v != "" {
		cfg.Chunker.Mode = v
	}
	if v := strings.TrimSpace(os.Getenv("STREAMDOWN_CHUNK_DELAY_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Chunker.DelayMS = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("STREAMDOWN_CHUNK_MAX_LENGTH")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Chunker.MaxChunkLength = n
		}
	}
	if v := os.Getenv("STREAMDOWN_RENDER_THEME"); v != "" {
		cfg.Render.Theme = v
	}
	if v := strings.TrimSpace(os.Getenv("STREAMDOWN_RENDER_WIDTH")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Render.Width = n
		}
	}
	if v := os.Getenv("STREAMDOWN_SERVER_BIND"); v != "" {
		cfg.Server.Bind = v
	}
	if v := os.Getenv("STREAMDOWN_LOG_DIR"); v != "" {
		cfg.Logging.Dir = v
	}
	if v := os.Getenv("STREAMDOWN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// envBool reads a boolean environment variable; the second return
// reports whether the variable held a recognized value.
func envBool(key string) (bool, bool) {
	val := os.Getenv(key)
	if val == "" {
		return false, false
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	switch c.Chunker.Mode {
	case "random", "word":
	default:
		return fmt.Errorf("invalid chunker mode %q (want random or word)", c.Chunker.Mode)
	}
	if c.Chunker.MaxChunkLength < MinChunkLength {
		return fmt.Errorf("chunker max_chunk_length %d below minimum %d", c.Chunker.MaxChunkLength, MinChunkLength)
	}
	if c.Chunker.DelayMS < 0 {
		return fmt.Errorf("chunker delay_ms must not be negative, got %d", c.Chunker.DelayMS)
	}
	if c.Chunker.MinPassthrough < 0 {
		return fmt.Errorf("chunker min_passthrough must not be negative, got %d", c.Chunker.MinPassthrough)
	}

	switch c.Render.Theme {
	case "auto", "dark", "light", "notty":
	default:
		return fmt.Errorf("invalid render theme %q", c.Render.Theme)
	}
	if c.Render.Width < 0 {
		return fmt.Errorf("render width must not be negative, got %d", c.Render.Width)
	}

	if c.Server.Bind != "" {
		if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
			return fmt.Errorf("invalid server bind address %q: %w", c.Server.Bind, err)
		}
	}
	if c.Server.TimeoutSeconds < 0 {
		return fmt.Errorf("server timeout_seconds must not be negative, got %d", c.Server.TimeoutSeconds)
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}

	for i, pair := range c.Segmenter.ExtraTags {
		if pair.Open == "" || pair.Close == "" {
			return fmt.Errorf("segmenter extra_tags[%d]: open and close are both required", i)
		}
	}

	return nil
}
