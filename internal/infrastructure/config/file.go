package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// fileConfig is the on-disk shape. Durations are written as Go duration
// strings ("1s", "2m30s").
type fileConfig struct {
	API struct {
		Token          string `toml:"token" yaml:"token"`
		URL            string `toml:"url" yaml:"url"`
		MaxConcurrency int    `toml:"max_concurrency" yaml:"max_concurrency"`
	} `toml:"api" yaml:"api"`
	Retry struct {
		MaxAttempts int    `toml:"max_attempts" yaml:"max_attempts"`
		BaseDelay   string `toml:"base_delay" yaml:"base_delay"`
		MaxDelay    string `toml:"max_delay" yaml:"max_delay"`
	} `toml:"retry" yaml:"retry"`
	Transport struct {
		Timeout            string `toml:"timeout" yaml:"timeout"`
		ProxyURL           string `toml:"proxy" yaml:"proxy"`
		InsecureSkipVerify bool   `toml:"insecure_skip_verify" yaml:"insecure_skip_verify"`
		UserAgent          string `toml:"user_agent" yaml:"user_agent"`
	} `toml:"transport" yaml:"transport"`
	Logging struct {
		Level       string `toml:"level" yaml:"level"`
		Development bool   `toml:"development" yaml:"development"`
	} `toml:"logging" yaml:"logging"`
	RateLimit struct {
		RequestsPerSecond float64 `toml:"requests_per_second" yaml:"requests_per_second"`
		Burst             int     `toml:"burst" yaml:"burst"`
	} `toml:"rate_limit" yaml:"rate_limit"`
	Breaker struct {
		Enabled             bool   `toml:"enabled" yaml:"enabled"`
		ConsecutiveFailures uint32 `toml:"consecutive_failures" yaml:"consecutive_failures"`
		Timeout             string `toml:"timeout" yaml:"timeout"`
	} `toml:"breaker" yaml:"breaker"`
}

// LoadFile reads a TOML (.toml) or YAML (.yaml, .yml) file. Keys missing
// from the file keep their Default values.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes data in the format named by ext (".toml", ".yaml", ".yml",
// with or without the dot).
func Parse(data []byte, ext string) (*Config, error) {
	fc := toFile(Default())

	switch strings.TrimPrefix(strings.ToLower(ext), ".") {
	case "toml":
		if err := toml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}

	return fc.toConfig()
}

func toFile(c *Config) fileConfig {
	var fc fileConfig
	fc.API.Token = c.API.Token
	fc.API.URL = c.API.URL
	fc.API.MaxConcurrency = c.API.MaxConcurrency
	fc.Retry.MaxAttempts = c.Retry.MaxAttempts
	fc.Retry.BaseDelay = c.Retry.BaseDelay.String()
	fc.Retry.MaxDelay = c.Retry.MaxDelay.String()
	fc.Transport.Timeout = c.Transport.Timeout.String()
	fc.Transport.ProxyURL = c.Transport.ProxyURL
	fc.Transport.InsecureSkipVerify = c.Transport.InsecureSkipVerify
	fc.Transport.UserAgent = c.Transport.UserAgent
	fc.Logging.Level = c.Logging.Level
	fc.Logging.Development = c.Logging.Development
	fc.RateLimit.RequestsPerSecond = c.RateLimit.RequestsPerSecond
	fc.RateLimit.Burst = c.RateLimit.Burst
	fc.Breaker.Enabled = c.Breaker.Enabled
	fc.Breaker.ConsecutiveFailures = c.Breaker.ConsecutiveFailures
	fc.Breaker.Timeout = c.Breaker.Timeout.String()
	return fc
}

func (fc fileConfig) toConfig() (*Config, error) {
	var c Config
	var err error

	c.API.Token = fc.API.Token
	c.API.URL = fc.API.URL
	c.API.MaxConcurrency = fc.API.MaxConcurrency

	c.Retry.MaxAttempts = fc.Retry.MaxAttempts
	if c.Retry.BaseDelay, err = parseDuration("retry.base_delay", fc.Retry.BaseDelay); err != nil {
		return nil, err
	}
	if c.Retry.MaxDelay, err = parseDuration("retry.max_delay", fc.Retry.MaxDelay); err != nil {
		return nil, err
	}

	if c.Transport.Timeout, err = parseDuration("transport.timeout", fc.Transport.Timeout); err != nil {
		return nil, err
	}
	c.Transport.ProxyURL = fc.Transport.ProxyURL
	c.Transport.InsecureSkipVerify = fc.Transport.InsecureSkipVerify
	c.Transport.UserAgent = fc.Transport.UserAgent

	c.Logging.Level = fc.Logging.Level
	c.Logging.Development = fc.Logging.Development

	c.RateLimit.RequestsPerSecond = fc.RateLimit.RequestsPerSecond
	c.RateLimit.Burst = fc.RateLimit.Burst

	c.Breaker.Enabled = fc.Breaker.Enabled
	c.Breaker.ConsecutiveFailures = fc.Breaker.ConsecutiveFailures
	if c.Breaker.Timeout, err = parseDuration("breaker.timeout", fc.Breaker.Timeout); err != nil {
		return nil, err
	}

	return &c, nil
}

func parseDuration(key, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}
