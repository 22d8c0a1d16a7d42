package middleware

import (
	"fmt"
	"strconv"
	"time"

	"event-token-ledger/config"
	redisStore "event-token-ledger/internal/adapter/storage/redis"
	"event-token-ledger/pkg/apperror"
	"event-token-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Endpoint groups that carry their own limits.
const (
	GroupSpend = "spend"
	GroupRead  = "read"
	GroupTopup = "topup"
)

// RateLimitRule defines a rate limit for an endpoint group.
type RateLimitRule struct {
	Limit  int64
	Window time.Duration
}

// RateLimitRules maps configured limits onto endpoint groups.
func RateLimitRules(cfg config.RateLimitConfig) map[string]RateLimitRule {
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}
	return map[string]RateLimitRule{
		GroupSpend: {Limit: cfg.Spend, Window: window},
		GroupRead:  {Limit: cfg.Read, Window: window},
		GroupTopup: {Limit: cfg.Topup, Window: window},
	}
}

// RateLimiter creates a rate-limiting middleware for a given endpoint group.
// Redis failures let the request through.
func RateLimiter(store *redisStore.RateLimitStore, group string, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rule.Limit <= 0 {
			c.Next()
			return
		}
		key := fmt.Sprintf("%s:%s", extractIdentifier(c), group)

		result, err := store.Allow(c.Request.Context(), key, rule.Limit, rule.Window)
		if err != nil {
			log.Warn().Err(err).Str("group", group).Msg("rate limit check failed, allowing request (degraded mode)")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))

		if !result.Allowed {
			retryAfter := max(result.ResetAt-time.Now().Unix(), 1)
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			response.Error(c, apperror.ErrRateLimitExceeded())
			c.Abort()
			return
		}

		c.Next()
	}
}

// extractIdentifier keys authenticated traffic by account, anonymous by IP.
func extractIdentifier(c *gin.Context) string {
	if id := c.GetString(CtxAccountID); id != "" {
		return "acct:" + id
	}
	return "ip:" + c.ClientIP()
}
