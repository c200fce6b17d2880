// Package config provides 12-factor configuration for the Web API client.
//
// Configuration is loaded from environment variables with sensible defaults,
// or from a TOML or YAML file. CLI flags can override either source.
//
// Configuration Sections:
//   - API: token, base URL and concurrency limit
//   - Retry: attempt count and backoff bounds
//   - Transport: timeout, proxy, TLS and user agent
//   - Logging: log level and output format
//   - RateLimit: optional client-side request rate
//   - Breaker: optional circuit breaker over transport failures
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		return err
//	}
//	fmt.Printf("Calling %s with %d slots\n", cfg.API.URL, cfg.API.MaxConcurrency)
//
// Environment Variables:
//   - WEBAPI_TOKEN, WEBAPI_URL, WEBAPI_MAX_CONCURRENCY
//   - WEBAPI_RETRY_MAX_ATTEMPTS, WEBAPI_RETRY_BASE_DELAY, WEBAPI_RETRY_MAX_DELAY
//   - WEBAPI_TIMEOUT, WEBAPI_PROXY, WEBAPI_INSECURE_SKIP_VERIFY, WEBAPI_USER_AGENT
//   - LOG_LEVEL, LOG_DEV
//   - WEBAPI_RPS, WEBAPI_BURST
//   - WEBAPI_BREAKER_ENABLED, WEBAPI_BREAKER_FAILURES, WEBAPI_BREAKER_TIMEOUT
package config
