// Package config provides CLI configuration management for the meetscribe
// command-line tool. It supports loading configuration from YAML files,
// environment variables, and command-line flags.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// OutputFormat defines the supported output formats for CLI results.
type OutputFormat string

const (
	// OutputFormatText is human-readable plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML is YAML-formatted output for machine processing.
	OutputFormatYAML OutputFormat = "yaml"
)

// Default configuration values.
const (
	DefaultServerURL    = "http://localhost:18056"
	DefaultTimeout      = 30 * time.Second
	DefaultOutputFormat = OutputFormatText
	DefaultConfigDir    = ".meetscribe"
	DefaultConfigFile   = "config.yaml"
)

// StreamConfig tunes the live transcript stream. Zero values fall back to
// the stream package defaults.
type StreamConfig struct {
	// HeartbeatInterval is how often a ping is written on an open stream.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval,omitempty"`

	// ReconnectInitialDelay is the first reconnect backoff delay.
	ReconnectInitialDelay time.Duration `yaml:"reconnect_initial_delay,omitempty"`

	// ReconnectMaxDelay caps the reconnect backoff delay.
	ReconnectMaxDelay time.Duration `yaml:"reconnect_max_delay,omitempty"`

	// ReconnectMaxAttempts is the consecutive-failure ceiling before the
	// stream gives up.
	ReconnectMaxAttempts int `yaml:"reconnect_max_attempts,omitempty"`
}

// CLIConfig holds the CLI configuration settings.
type CLIConfig struct {
	// ServerURL is the base URL of the transcription API (http or https).
	ServerURL string `yaml:"server_url"`

	// Timeout is the default timeout for API requests.
	Timeout time.Duration `yaml:"timeout"`

	// OutputFormat specifies the default output format for commands.
	OutputFormat OutputFormat `yaml:"output_format"`

	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug,omitempty"`

	// Stream tunes the live transcript stream.
	Stream StreamConfig `yaml:"stream,omitempty"`
}

// DefaultConfig returns a CLIConfig with default values.
func DefaultConfig() *CLIConfig {
	return &CLIConfig{
		ServerURL:    DefaultServerURL,
		Timeout:      DefaultTimeout,
		OutputFormat: DefaultOutputFormat,
	}
}

// ConfigDir returns the configuration directory path.
// Uses $MEETSCRIBE_CONFIG_DIR if set, otherwise ~/.meetscribe
func ConfigDir() (string, error) {
	if dir := os.Getenv("MEETSCRIBE_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads the CLI configuration from file and environment variables.
// Configuration is loaded in this order (later sources override earlier):
// 1. Default values
// 2. Config file (~/.meetscribe/config.yaml or $MEETSCRIBE_CONFIG_DIR/config.yaml)
// 3. Environment variables (MEETSCRIBE_SERVER_URL, MEETSCRIBE_TIMEOUT, ...)
func LoadConfig() (*CLIConfig, error) {
	cfg := DefaultConfig()

	configPath, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// configFile mirrors CLIConfig with durations as strings for YAML.
type configFile struct {
	ServerURL    string           `yaml:"server_url"`
	Timeout      string           `yaml:"timeout,omitempty"`
	OutputFormat OutputFormat     `yaml:"output_format,omitempty"`
	Debug        bool             `yaml:"debug,omitempty"`
	Stream       streamConfigFile `yaml:"stream,omitempty"`
}

type streamConfigFile struct {
	HeartbeatInterval     string `yaml:"heartbeat_interval,omitempty"`
	ReconnectInitialDelay string `yaml:"reconnect_initial_delay,omitempty"`
	ReconnectMaxDelay     string `yaml:"reconnect_max_delay,omitempty"`
	ReconnectMaxAttempts  int    `yaml:"reconnect_max_attempts,omitempty"`
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *CLIConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fileCfg configFile
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fileCfg.ServerURL != "" {
		cfg.ServerURL = fileCfg.ServerURL
	}
	if fileCfg.Timeout != "" {
		timeout, err := time.ParseDuration(fileCfg.Timeout)
		if err != nil {
			return fmt.Errorf("parsing timeout: %w", err)
		}
		cfg.Timeout = timeout
	}
	if fileCfg.OutputFormat != "" {
		cfg.OutputFormat = fileCfg.OutputFormat
	}
	cfg.Debug = fileCfg.Debug

	if err := overlayStreamDuration(&cfg.Stream.HeartbeatInterval, fileCfg.Stream.HeartbeatInterval, "stream.heartbeat_interval"); err != nil {
		return err
	}
	if err := overlayStreamDuration(&cfg.Stream.ReconnectInitialDelay, fileCfg.Stream.ReconnectInitialDelay, "stream.reconnect_initial_delay"); err != nil {
		return err
	}
	if err := overlayStreamDuration(&cfg.Stream.ReconnectMaxDelay, fileCfg.Stream.ReconnectMaxDelay, "stream.reconnect_max_delay"); err != nil {
		return err
	}
	if fileCfg.Stream.ReconnectMaxAttempts != 0 {
		cfg.Stream.ReconnectMaxAttempts = fileCfg.Stream.ReconnectMaxAttempts
	}

	return nil
}

func overlayStreamDuration(dst *time.Duration, raw, field string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", field, err)
	}
	*dst = d
	return nil
}

// loadFromEnv overlays environment variables onto the configuration.
func loadFromEnv(cfg *CLIConfig) {
	if v := os.Getenv("MEETSCRIBE_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}

	if v := os.Getenv("MEETSCRIBE_TIMEOUT"); v != "" {
		if timeout, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = timeout
		}
	}

	if v := os.Getenv("MEETSCRIBE_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(v)
	}

	if v := os.Getenv("MEETSCRIBE_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}

	if v := os.Getenv("MEETSCRIBE_HEARTBEAT_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Stream.HeartbeatInterval = d
		}
	}

	if v := os.Getenv("MEETSCRIBE_RECONNECT_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Stream.ReconnectMaxAttempts = n
		}
	}
}

// Validate checks that the configuration is valid.
func (c *CLIConfig) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server_url is required")
	}

	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("parsing server_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server_url must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("server_url is missing a host")
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if !c.OutputFormat.IsValid() {
		return fmt.Errorf("invalid output_format: %q (must be text, json, or yaml)", c.OutputFormat)
	}

	if c.Stream.ReconnectMaxAttempts < 0 {
		return fmt.Errorf("stream.reconnect_max_attempts must not be negative")
	}

	return nil
}

// IsValid checks if the output format is valid.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return true
	default:
		return false
	}
}

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	return string(f)
}

// SaveConfig saves the configuration to the config file.
func SaveConfig(cfg *CLIConfig) error {
	configDir, err := ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(configDir, DefaultConfigFile)

	fileCfg := configFile{
		ServerURL:    cfg.ServerURL,
		Timeout:      cfg.Timeout.String(),
		OutputFormat: cfg.OutputFormat,
		Debug:        cfg.Debug,
		Stream: streamConfigFile{
			ReconnectMaxAttempts: cfg.Stream.ReconnectMaxAttempts,
		},
	}
	if cfg.Stream.HeartbeatInterval > 0 {
		fileCfg.Stream.HeartbeatInterval = cfg.Stream.HeartbeatInterval.String()
	}
	if cfg.Stream.ReconnectInitialDelay > 0 {
		fileCfg.Stream.ReconnectInitialDelay = cfg.Stream.ReconnectInitialDelay.String()
	}
	if cfg.Stream.ReconnectMaxDelay > 0 {
		fileCfg.Stream.ReconnectMaxDelay = cfg.Stream.ReconnectMaxDelay.String()
	}

	data, err := yaml.Marshal(&fileCfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}
