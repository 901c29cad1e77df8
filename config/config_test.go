package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultServerURL, cfg.ServerURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, OutputFormatText, cfg.OutputFormat)
	assert.False(t, cfg.Debug)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigDefaultsWhenNoFile(t *testing.T) {
	t.Setenv("MEETSCRIBE_CONFIG_DIR", t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultServerURL, cfg.ServerURL)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MEETSCRIBE_CONFIG_DIR", dir)

	content := `server_url: https://transcripts.example.com
timeout: 45s
output_format: json
debug: true
stream:
  heartbeat_interval: 10s
  reconnect_max_attempts: 5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(content), 0600))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://transcripts.example.com", cfg.ServerURL)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, OutputFormatJSON, cfg.OutputFormat)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 10*time.Second, cfg.Stream.HeartbeatInterval)
	assert.Equal(t, 5, cfg.Stream.ReconnectMaxAttempts)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MEETSCRIBE_CONFIG_DIR", dir)

	content := "server_url: http://from-file:8080\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(content), 0600))

	t.Setenv("MEETSCRIBE_SERVER_URL", "http://from-env:9090")
	t.Setenv("MEETSCRIBE_TIMEOUT", "90s")
	t.Setenv("MEETSCRIBE_OUTPUT_FORMAT", "yaml")
	t.Setenv("MEETSCRIBE_DEBUG", "1")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:9090", cfg.ServerURL)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.Equal(t, OutputFormatYAML, cfg.OutputFormat)
	assert.True(t, cfg.Debug)
}

func TestLoadConfigRejectsBadTimeout(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MEETSCRIBE_CONFIG_DIR", dir)

	content := "timeout: not-a-duration\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(content), 0600))

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing timeout")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CLIConfig)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *CLIConfig) {},
		},
		{
			name:    "missing server url",
			mutate:  func(c *CLIConfig) { c.ServerURL = "" },
			wantErr: "server_url is required",
		},
		{
			name:    "bad scheme",
			mutate:  func(c *CLIConfig) { c.ServerURL = "ftp://example.com" },
			wantErr: "must use http or https",
		},
		{
			name:    "no host",
			mutate:  func(c *CLIConfig) { c.ServerURL = "http://" },
			wantErr: "missing a host",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *CLIConfig) { c.Timeout = 0 },
			wantErr: "timeout must be positive",
		},
		{
			name:    "bad output format",
			mutate:  func(c *CLIConfig) { c.OutputFormat = "xml" },
			wantErr: "invalid output_format",
		},
		{
			name:    "negative reconnect attempts",
			mutate:  func(c *CLIConfig) { c.Stream.ReconnectMaxAttempts = -1 },
			wantErr: "must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveAndReloadConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MEETSCRIBE_CONFIG_DIR", dir)

	cfg := DefaultConfig()
	cfg.ServerURL = "https://transcripts.example.com"
	cfg.Timeout = time.Minute
	cfg.OutputFormat = OutputFormatJSON
	cfg.Stream.HeartbeatInterval = 15 * time.Second
	cfg.Stream.ReconnectMaxAttempts = 7

	require.NoError(t, SaveConfig(cfg))

	loaded, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, cfg.ServerURL, loaded.ServerURL)
	assert.Equal(t, cfg.Timeout, loaded.Timeout)
	assert.Equal(t, cfg.OutputFormat, loaded.OutputFormat)
	assert.Equal(t, cfg.Stream.HeartbeatInterval, loaded.Stream.HeartbeatInterval)
	assert.Equal(t, cfg.Stream.ReconnectMaxAttempts, loaded.Stream.ReconnectMaxAttempts)
}

func TestOutputFormatIsValid(t *testing.T) {
	assert.True(t, OutputFormatText.IsValid())
	assert.True(t, OutputFormatJSON.IsValid())
	assert.True(t, OutputFormatYAML.IsValid())
	assert.False(t, OutputFormat("csv").IsValid())
	assert.False(t, OutputFormat("").IsValid())
}
