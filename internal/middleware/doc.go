// Package middleware provides gin middleware for the mock API server.
//
// RateLimit throttles per client and method and rejects with the same
// shape the real API uses (429, Retry-After, "ratelimited"), so the
// client's retry path can be exercised end to end. CORS opens the mock to
// browser-based tools.
//
// Example Usage:
//
//	srv := mockapi.New(token, mockapi.WithMiddleware(
//		middleware.CORS(middleware.DefaultCORSConfig()),
//		middleware.RateLimit(middleware.DefaultRateLimitConfig()),
//	))
package middleware
