// Package retry decides, per failed attempt, whether to try again.
//
// Only transient failures are retried: transport errors, HTTP statuses listed
// in RetryStatuses (429 by default), and platform errors that carry a
// server-declared Retry-After. A declared wait is used verbatim; otherwise the
// delay is exponential (via go-retryablehttp's DefaultBackoff), capped at
// MaxDelay, with random jitter.
//
// The policy never sleeps. Callers wait for Decision.Delay themselves.
package retry
