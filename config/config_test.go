package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "https://api.spacexdata.com/v4", cfg.SpaceX.BaseURL)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, `
server:
  name: test-server
  call_timeout: 5s
spacex:
  base_url: http://localhost:9999/v4
  rate_limit: 0
log:
  backend: zap
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test-server", cfg.Server.Name)
	assert.Equal(t, "1.0.0", cfg.Server.Version)
	assert.Equal(t, 5*time.Second, cfg.Server.CallTimeout)
	assert.Equal(t, "http://localhost:9999/v4", cfg.SpaceX.BaseURL)
	assert.Zero(t, cfg.SpaceX.RateLimit)
	assert.Equal(t, "zap", cfg.Log.Backend)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestEnvOverridesYAML(t *testing.T) {
	path := writeFile(t, `
spacex:
  base_url: http://from-file/v4
`)
	t.Setenv("SPACEX_MCP_BASE_URL", "http://from-env/v4")
	t.Setenv("SPACEX_MCP_CALL_TIMEOUT", "750ms")
	t.Setenv("SPACEX_MCP_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env/v4", cfg.SpaceX.BaseURL)
	assert.Equal(t, 750*time.Millisecond, cfg.Server.CallTimeout)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeFile(t, "server: [unterminated")
	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config YAML")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "zero request size", mutate: func(c *Config) { c.Server.MaxRequestSize = 0 }, wantErr: "max_request_size"},
		{name: "zero call timeout", mutate: func(c *Config) { c.Server.CallTimeout = 0 }, wantErr: "call_timeout"},
		{name: "empty base url", mutate: func(c *Config) { c.SpaceX.BaseURL = "" }, wantErr: "base_url"},
		{name: "negative burst", mutate: func(c *Config) { c.SpaceX.Burst = -1 }, wantErr: "burst"},
		{name: "unknown backend", mutate: func(c *Config) { c.Log.Backend = "syslog" }, wantErr: "log.backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
