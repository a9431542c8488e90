package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/MolSieve/internal/infrastructure/memo"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/prometheus"
)

// Rate limit response headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// GlobalRateLimitKey is the single bucket used when KeyFunc is nil.
const GlobalRateLimitKey = "global"

// RateLimitConfig holds configuration for the rate limit middleware.
type RateLimitConfig struct {
	// KeyFunc selects the bucket.  Nil means one global bucket.
	KeyFunc func(c *gin.Context) string
	// SkipPaths bypass the limiter.
	SkipPaths []string
	Metrics   *prometheus.AppMetrics
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		SkipPaths: []string{"/healthz", "/readyz", "/metrics"},
	}
}

// ClientIPKey buckets requests per client address.
func ClientIPKey(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// RateLimit admits requests through limiter and reports the window in the
// X-RateLimit-* headers.  A denied request gets 429 with Retry-After.
func RateLimit(limiter memo.Limiter, config RateLimitConfig) gin.HandlerFunc {
	skip := make(map[string]bool, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if limiter == nil || skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		key := GlobalRateLimitKey
		if config.KeyFunc != nil {
			key = config.KeyFunc(c)
		}

		allowed := limiter.Allow(key)
		reset := limiter.ResetAt(key)
		c.Header(HeaderRateLimitLimit, strconv.Itoa(limiter.Limit()))
		c.Header(HeaderRateLimitRemaining, strconv.Itoa(limiter.Remaining(key)))
		if !reset.IsZero() {
			c.Header(HeaderRateLimitReset, strconv.FormatInt(reset.Unix(), 10))
		}

		if !allowed {
			config.Metrics.RecordThrottleDenied(key)
			retry := int(time.Until(reset).Seconds()) + 1
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":   "COMMON_007",
				"detail": "Rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

//Personal.AI order the ending
