package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aimd54/questforge/internal/api/response"
	prommetrics "github.com/aimd54/questforge/internal/metrics"
	"github.com/aimd54/questforge/pkg/logger"
)

// Counter is a shared counter with expiry, such as Redis.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) error
}

// RateLimiter enforces fixed-window request limits per user.
type RateLimiter struct {
	counter Counter
	log     *logger.Logger
	now     func() time.Time
}

// NewRateLimiter creates a rate limiter backed by counter.
func NewRateLimiter(counter Counter, log *logger.Logger) *RateLimiter {
	return &RateLimiter{counter: counter, log: log, now: time.Now}
}

// Limit allows at most limit requests per window for each caller. The caller
// is the authenticated user, or the client IP before authentication. Counter
// failures let the request through. A limit of zero or less disables the check.
func (rl *RateLimiter) Limit(route string, limit int, window time.Duration) gin.HandlerFunc {
	window = max(window, time.Second)
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}

		caller := UserID(c)
		if caller == "" {
			caller = "ip:" + c.ClientIP()
		}
		bucket := rl.now().Unix() / int64(window.Seconds())
		key := fmt.Sprintf("rate_limit:%s:%s:%d", route, caller, bucket)

		count, err := rl.counter.Incr(c.Request.Context(), key)
		if err != nil {
			rl.log.Warn().Err(err).Str("route", route).Msg("Rate limit counter unavailable, allowing request")
			c.Next()
			return
		}
		if count == 1 {
			if err := rl.counter.Expire(c.Request.Context(), key, window); err != nil {
				rl.log.Warn().Err(err).Str("key", key).Msg("Failed to set rate limit expiry")
			}
		}

		if count > int64(limit) {
			prommetrics.RecordRateLimited(route)
			retryAfter := window - time.Duration(rl.now().Unix()%int64(window.Seconds()))*time.Second
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			response.AbortWithError(c, http.StatusTooManyRequests, "Too many requests")
			return
		}

		c.Next()
	}
}
