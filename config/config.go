// Package config loads server settings from defaults, an optional YAML file
// and SPACEX_MCP_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "SPACEX_MCP_"

type Config struct {
	Server ServerConfig `yaml:"server"`
	SpaceX SpaceXConfig `yaml:"spacex"`
	Log    LogConfig    `yaml:"log" envPrefix:"LOG_"`
}

type ServerConfig struct {
	Name           string        `yaml:"name" env:"SERVER_NAME"`
	Version        string        `yaml:"version" env:"SERVER_VERSION"`
	MaxRequestSize int           `yaml:"max_request_size" env:"MAX_REQUEST_SIZE"`
	CallTimeout    time.Duration `yaml:"call_timeout" env:"CALL_TIMEOUT"`
}

type SpaceXConfig struct {
	BaseURL   string        `yaml:"base_url" env:"BASE_URL"`
	Timeout   time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT"`
	RateLimit float64       `yaml:"rate_limit" env:"RATE_LIMIT"`
	Burst     int           `yaml:"burst" env:"RATE_BURST"`
	UserAgent string        `yaml:"user_agent" env:"USER_AGENT"`
}

type LogConfig struct {
	Backend string `yaml:"backend" env:"BACKEND"`
	Level   string `yaml:"level" env:"LEVEL"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Name:           "spacex-mcp-server",
			Version:        "1.0.0",
			MaxRequestSize: 1024 * 1024,
			CallTimeout:    30 * time.Second,
		},
		SpaceX: SpaceXConfig{
			BaseURL:   "https://api.spacexdata.com/v4",
			Timeout:   20 * time.Second,
			RateLimit: 5,
			Burst:     5,
			UserAgent: "spacex-mcp-server/1.0.0",
		},
		Log: LogConfig{
			Backend: "logrus",
			Level:   "info",
		},
	}
}

// Load returns the default config overlaid with the YAML file at path (if it
// exists) and then with environment variables. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config YAML: %w", err)
			}
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

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Name == "" {
		errs = append(errs, errors.New("server.name must not be empty"))
	}
	if c.Server.MaxRequestSize <= 0 {
		errs = append(errs, errors.New("server.max_request_size must be positive"))
	}
	if c.Server.CallTimeout <= 0 {
		errs = append(errs, errors.New("server.call_timeout must be positive"))
	}
	if c.SpaceX.BaseURL == "" {
		errs = append(errs, errors.New("spacex.base_url must not be empty"))
	}
	if c.SpaceX.Timeout <= 0 {
		errs = append(errs, errors.New("spacex.timeout must be positive"))
	}
	if c.SpaceX.RateLimit < 0 || c.SpaceX.Burst < 0 {
		errs = append(errs, errors.New("spacex.rate_limit and spacex.burst must not be negative"))
	}
	switch c.Log.Backend {
	case "logrus", "zap", "null":
	default:
		errs = append(errs, fmt.Errorf("log.backend %q is not one of logrus, zap, null", c.Log.Backend))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
