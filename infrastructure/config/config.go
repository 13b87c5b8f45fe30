// Package config loads application settings from YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvAnalyzerScript = "PITCHTRACK_ANALYZER_SCRIPT"
	EnvOutputDir      = "PITCHTRACK_OUTPUT_DIR"
)

// FileName is the config file name under the app config directory.
const FileName = "config.yaml"

// Config is the full application configuration.
type Config struct {
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Output   OutputConfig   `yaml:"output"`
	Preview  PreviewConfig  `yaml:"preview"`
	History  HistoryConfig  `yaml:"history"`
	Logging  LoggingConfig  `yaml:"logging"`
	EventBus EventBusConfig `yaml:"event_bus"`
}

// AnalyzerConfig selects the external analyzer.
type AnalyzerConfig struct {
	Interpreter string `yaml:"interpreter"`
	Script      string `yaml:"script"`
}

// OutputConfig overrides the output directory location.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// PreviewConfig controls the local HTTP preview server.
type PreviewConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// HistoryConfig controls persistence of analysis runs.
type HistoryConfig struct {
	Enabled        bool     `yaml:"enabled"`
	MongoURI       string   `yaml:"mongo_uri"`
	Database       string   `yaml:"database"`
	ConnectTimeout Duration `yaml:"connect_timeout"`
	PingTimeout    Duration `yaml:"ping_timeout"`
	// ServerSelectionTimeout bounds each query while the server is unreachable.
	ServerSelectionTimeout Duration `yaml:"server_selection_timeout"`
}

// LoggingConfig controls log verbosity and, in release builds, file rotation.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	AddSource bool   `yaml:"add_source"`
	// Dir empty means the per-user config directory.
	Dir        string `yaml:"dir"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// EventBusConfig sizes the event bus queue.
type EventBusConfig struct {
	Buffer int `yaml:"buffer"`
}

// Duration is a time.Duration written as a Go duration string ("10s").
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns built-in settings, used when no defaults document is supplied.
func Default() *Config {
	return &Config{
		Analyzer: AnalyzerConfig{Interpreter: "python3", Script: "main.py"},
		Preview:  PreviewConfig{Enabled: true, Addr: "127.0.0.1:8765"},
		History: HistoryConfig{
			MongoURI:               "mongodb://localhost:27017",
			Database:               "pitchtrack",
			ConnectTimeout:         Duration(10 * time.Second),
			PingTimeout:            Duration(5 * time.Second),
			ServerSelectionTimeout: Duration(5 * time.Second),
		},
		Logging:  LoggingConfig{Level: "info"},
		EventBus: EventBusConfig{Buffer: 100},
	}
}

// DefaultPath returns os.UserConfigDir()/pitchtrack/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config directory: %w", err)
	}
	return filepath.Join(dir, "pitchtrack", FileName), nil
}

// Parse decodes data on top of base. Keys missing from data keep base values.
func Parse(base *Config, data []byte) (*Config, error) {
	cfg := *base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Load builds the configuration: built-in values, then the defaults document,
// then the file at path if it exists, then environment overrides.
func Load(path string, defaults []byte) (*Config, error) {
	cfg := Default()

	if len(defaults) > 0 {
		parsed, err := Parse(cfg, defaults)
		if err != nil {
			return nil, fmt.Errorf("embedded defaults: %w", err)
		}
		cfg = parsed
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			parsed, err := Parse(cfg, data)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			cfg = parsed
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAnalyzerScript); v != "" {
		c.Analyzer.Script = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.Output.Dir = v
	}
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Analyzer.Script == "" {
		return errors.New("analyzer.script must be set")
	}
	if c.Preview.Enabled && c.Preview.Addr == "" {
		return errors.New("preview.addr must be set when preview is enabled")
	}
	if c.History.Enabled && c.History.MongoURI == "" {
		return errors.New("history.mongo_uri must be set when history is enabled")
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		return errors.New("logging rotation settings must not be negative")
	}
	if c.EventBus.Buffer < 0 {
		return fmt.Errorf("event_bus.buffer must not be negative, got %d", c.EventBus.Buffer)
	}
	return nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
