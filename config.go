package webclient

import (
	"crypto/tls"
	"time"

	"github.com/GriffinCanCode/webclient/internal/infrastructure/config"
	"github.com/GriffinCanCode/webclient/internal/retry"
	"github.com/GriffinCanCode/webclient/internal/transport"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// DefaultAPIURL is the production Web API endpoint.
const DefaultAPIURL = config.DefaultAPIURL

// DefaultLoggerName names the client's logger unless Config.LoggerName is set.
const DefaultLoggerName = "webclient"

// DefaultMaxConcurrency is the number of calls allowed in flight at once.
const DefaultMaxConcurrency = 3

// BreakerOptions configure the optional circuit breaker. Only transport
// failures (RequestError) count toward tripping it.
type BreakerOptions struct {
	Enabled bool
	// ConsecutiveFailures trips the breaker. Zero means 10.
	ConsecutiveFailures uint32
	// Timeout is how long the breaker stays open. Zero means 30s.
	Timeout time.Duration
}

// Config holds static client configuration.
type Config struct {
	// APIURL is the base endpoint; method names are appended to it.
	APIURL string
	// MaxConcurrency caps calls in flight; the rest queue in FIFO order.
	MaxConcurrency int
	// Retry is the retry policy. A zero MaxAttempts selects DefaultRetryPolicy.
	Retry RetryPolicy
	// Transport is passed to the default executor. Ignored when Executor is set.
	Transport TransportOptions
	// Executor replaces the default HTTP executor.
	Executor Executor

	// RequestsPerSecond enables a client-side token bucket. Zero disables it.
	RequestsPerSecond float64
	// Burst is the token bucket size. Zero means 1.
	Burst int

	Breaker BreakerOptions

	// Logger receives the client's logs, named LoggerName. Nil builds a
	// production zap logger writing to stderr.
	Logger     *zap.Logger
	LoggerName string

	// Registerer receives the client's metrics. Nil keeps them in a private
	// registry. Clients sharing a Registerer need distinct LoggerNames.
	Registerer prometheus.Registerer
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		APIURL:         DefaultAPIURL,
		MaxConcurrency: DefaultMaxConcurrency,
		Retry:          retry.Default(),
		Transport:      transport.DefaultOptions(),
		LoggerName:     DefaultLoggerName,
		Breaker: BreakerOptions{
			ConsecutiveFailures: 10,
			Timeout:             30 * time.Second,
		},
	}
}

// ConfigFrom converts environment or file configuration into a Config and
// returns the token it names.
func ConfigFrom(c *config.Config) (string, Config, error) {
	if err := c.Validate(); err != nil {
		return "", Config{}, err
	}

	cfg := DefaultConfig()
	cfg.APIURL = c.API.URL
	cfg.MaxConcurrency = c.API.MaxConcurrency

	cfg.Retry.MaxAttempts = c.Retry.MaxAttempts
	cfg.Retry.BaseDelay = c.Retry.BaseDelay
	cfg.Retry.MaxDelay = c.Retry.MaxDelay

	cfg.Transport.Timeout = c.Transport.Timeout
	cfg.Transport.ProxyURL = c.Transport.ProxyURL
	if c.Transport.UserAgent != "" {
		cfg.Transport.UserAgent = c.Transport.UserAgent
	}
	if c.Transport.InsecureSkipVerify {
		cfg.Transport.TLS = &tls.Config{InsecureSkipVerify: true}
	}

	cfg.RequestsPerSecond = c.RateLimit.RequestsPerSecond
	cfg.Burst = c.RateLimit.Burst

	cfg.Breaker = BreakerOptions{
		Enabled:             c.Breaker.Enabled,
		ConsecutiveFailures: c.Breaker.ConsecutiveFailures,
		Timeout:             c.Breaker.Timeout,
	}

	return c.API.Token, cfg, nil
}
