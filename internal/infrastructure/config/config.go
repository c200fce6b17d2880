package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// DefaultAPIURL is the production Web API endpoint.
const DefaultAPIURL = "https://slack.com/api/"

// Config holds all client configuration.
type Config struct {
	API       APIConfig
	Retry     RetryConfig
	Transport TransportConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Breaker   BreakerConfig
}

// APIConfig holds endpoint and credential settings.
type APIConfig struct {
	Token          string `envconfig:"WEBAPI_TOKEN"`
	URL            string `envconfig:"WEBAPI_URL" default:"https://slack.com/api/"`
	MaxConcurrency int    `envconfig:"WEBAPI_MAX_CONCURRENCY" default:"3"`
}

// RetryConfig holds retry policy parameters.
type RetryConfig struct {
	MaxAttempts int           `envconfig:"WEBAPI_RETRY_MAX_ATTEMPTS" default:"3"`
	BaseDelay   time.Duration `envconfig:"WEBAPI_RETRY_BASE_DELAY" default:"1s"`
	MaxDelay    time.Duration `envconfig:"WEBAPI_RETRY_MAX_DELAY" default:"30s"`
}

// TransportConfig holds options passed through to the HTTP executor.
type TransportConfig struct {
	Timeout            time.Duration `envconfig:"WEBAPI_TIMEOUT" default:"30s"`
	ProxyURL           string        `envconfig:"WEBAPI_PROXY"`
	InsecureSkipVerify bool          `envconfig:"WEBAPI_INSECURE_SKIP_VERIFY" default:"false"`
	UserAgent          string        `envconfig:"WEBAPI_USER_AGENT"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds client-side rate limiting configuration.
// Zero RequestsPerSecond disables the limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64 `envconfig:"WEBAPI_RPS" default:"0"`
	Burst             int     `envconfig:"WEBAPI_BURST" default:"1"`
}

// BreakerConfig holds circuit breaker configuration.
type BreakerConfig struct {
	Enabled             bool          `envconfig:"WEBAPI_BREAKER_ENABLED" default:"false"`
	ConsecutiveFailures uint32        `envconfig:"WEBAPI_BREAKER_FAILURES" default:"10"`
	Timeout             time.Duration `envconfig:"WEBAPI_BREAKER_TIMEOUT" default:"30s"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			URL:            DefaultAPIURL,
			MaxConcurrency: 3,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
		},
		Transport: TransportConfig{
			Timeout: 30 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 0,
			Burst:             1,
		},
		Breaker: BreakerConfig{
			Enabled:             false,
			ConsecutiveFailures: 10,
			Timeout:             30 * time.Second,
		},
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error

	if c.API.MaxConcurrency < 1 {
		errs = append(errs, fmt.Errorf("max concurrency must be at least 1, got %d", c.API.MaxConcurrency))
	}
	if u, err := url.Parse(c.API.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid API URL %q", c.API.URL))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry max attempts must be at least 1, got %d", c.Retry.MaxAttempts))
	}
	if c.Retry.BaseDelay < 0 || c.Retry.MaxDelay < 0 {
		errs = append(errs, errors.New("retry delays cannot be negative"))
	}
	if c.Retry.MaxDelay > 0 && c.Retry.BaseDelay > c.Retry.MaxDelay {
		errs = append(errs, errors.New("retry base delay cannot exceed max delay"))
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("requests per second cannot be negative"))
	}

	return errors.Join(errs...)
}
