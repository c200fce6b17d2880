package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitedError is the envelope error written when a bucket is empty.
const RateLimitedError = "ratelimited"

// RateLimitConfig defines rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	// Key selects the bucket for a request. Nil buckets by client IP and
	// API method.
	Key func(c *gin.Context) string
}

// DefaultRateLimitConfig returns a limit close to a mid-tier API method:
// about one call per second with short bursts.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 1,
		Burst:             20,
	}
}

// RateLimit answers over-limit requests the way the Web API does: HTTP 429,
// a whole-second Retry-After header and {"ok":false,"error":"ratelimited"}.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	key := cfg.Key
	if key == nil {
		key = func(c *gin.Context) string {
			return c.ClientIP() + " " + c.Param("method")
		}
	}
	burst := max(cfg.Burst, 1)

	var (
		mu      sync.Mutex
		buckets = make(map[string]*rate.Limiter)
	)

	return func(c *gin.Context) {
		k := key(c)

		mu.Lock()
		limiter, ok := buckets[k]
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
			buckets[k] = limiter
		}
		mu.Unlock()

		now := time.Now()
		if limiter.AllowN(now, 1) {
			c.Next()
			return
		}

		r := limiter.ReserveN(now, 1)
		wait := r.DelayFrom(now)
		r.CancelAt(now)

		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"ok":    false,
			"error": RateLimitedError,
		})
	}
}

// GlobalRateLimit shares one bucket between all requests.
func GlobalRateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	cfg.Key = func(*gin.Context) string { return "" }
	return RateLimit(cfg)
}

func retryAfterSeconds(d time.Duration) int {
	if d == rate.InfDuration {
		return 60
	}
	return max(int(math.Ceil(d.Seconds())), 1)
}
