package retry

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/GriffinCanCode/webclient/internal/apierror"
	"github.com/hashicorp/go-retryablehttp"
)

// Policy decides whether a failed attempt is tried again and after how long.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration
	// MaxDelay caps the computed backoff. A server-declared wait is not capped.
	MaxDelay time.Duration
	// Jitter is the fraction of the computed delay that may be randomly removed (0..1).
	Jitter float64
	// RetryStatuses lists HTTP statuses that are retried despite being HTTPErrors.
	RetryStatuses []int

	// Rand returns a value in [0,1). Nil uses math/rand/v2.
	Rand func() float64
}

// Decision is the outcome of ShouldRetry.
type Decision struct {
	Retry bool
	Delay time.Duration
}

// Default returns a conservative policy: three attempts, 1s..30s backoff.
func Default() Policy {
	return Policy{
		MaxAttempts:   3,
		BaseDelay:     1 * time.Second,
		MaxDelay:      30 * time.Second,
		Jitter:        0.5,
		RetryStatuses: []int{429},
	}
}

// None never retries.
func None() Policy {
	p := Default()
	p.MaxAttempts = 1
	return p
}

// FiveRetriesInFiveMinutes spreads five retries over roughly five minutes.
func FiveRetriesInFiveMinutes() Policy {
	p := Default()
	p.MaxAttempts = 6
	p.BaseDelay = 10 * time.Second
	p.MaxDelay = 3 * time.Minute
	return p
}

// TenRetriesInAboutThirtyMinutes spreads ten retries over roughly half an hour.
func TenRetriesInAboutThirtyMinutes() Policy {
	p := Default()
	p.MaxAttempts = 11
	p.BaseDelay = 2 * time.Second
	p.MaxDelay = 10 * time.Minute
	return p
}

// RapidRetry retries quickly; meant for tests.
func RapidRetry() Policy {
	p := Default()
	p.MaxAttempts = 11
	p.BaseDelay = time.Millisecond
	p.MaxDelay = 10 * time.Millisecond
	p.Jitter = 0
	return p
}

// ShouldRetry is called after attempt number `attempt` (1-based) failed with err.
// It never sleeps; the caller performs the wait.
func (p Policy) ShouldRetry(attempt int, err error) Decision {
	if err == nil || attempt >= p.maxAttempts() {
		return Decision{}
	}

	e, ok := apierror.As(err)
	if !ok {
		return Decision{}
	}

	switch e.Code {
	case apierror.RequestError:
		return Decision{Retry: true, Delay: p.Backoff(attempt)}
	case apierror.HTTPError:
		if !slices.Contains(p.RetryStatuses, e.Status) {
			return Decision{}
		}
		if e.RetryAfter > 0 {
			return Decision{Retry: true, Delay: e.RetryAfter}
		}
		return Decision{Retry: true, Delay: p.Backoff(attempt)}
	case apierror.PlatformError:
		if e.RetryAfter > 0 {
			return Decision{Retry: true, Delay: e.RetryAfter}
		}
	}

	return Decision{}
}

// Backoff returns the jittered exponential delay after attempt (1-based).
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if p.BaseDelay <= 0 {
		return 0
	}

	maxDelay := p.MaxDelay
	if maxDelay < p.BaseDelay {
		maxDelay = p.BaseDelay
	}

	d := retryablehttp.DefaultBackoff(p.BaseDelay, maxDelay, attempt-1, nil)

	jitter := min(max(p.Jitter, 0), 1)
	if jitter == 0 {
		return d
	}
	cut := time.Duration(float64(d) * jitter * p.random())
	return d - cut
}

func (p Policy) maxAttempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p Policy) random() float64 {
	if p.Rand != nil {
		return p.Rand()
	}
	return rand.Float64()
}
