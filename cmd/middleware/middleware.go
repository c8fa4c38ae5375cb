package middleware

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"genesis/internal/dto"
	"genesis/internal/ratelimit"
)

// LoggingMiddleware writes one access line per request.
func LoggingMiddleware() func(c *ginext.Context) {
	return func(c *ginext.Context) {
		start := time.Now()
		c.Next()
		zlog.Logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

// RateLimit rejects requests over limit-per-window for the client IP,
// counted separately per route tag.
func RateLimit(limiter *ratelimit.Limiter, tag string, limit int, window time.Duration) func(c *ginext.Context) {
	return func(c *ginext.Context) {
		key := tag + "_" + c.ClientIP()
		if !limiter.Allow(key, limit, window) {
			zlog.Logger.Warn().
				Str("key", key).
				Str("path", c.Request.URL.Path).
				Msg("rate limit exceeded")
			dto.TooManyRequestsError(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminAuth requires the shared admin secret as a bearer token. There are no
// sessions and no expiry; the token is the secret itself.
func AdminAuth(secret string) func(c *ginext.Context) {
	return func(c *ginext.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if secret == "" || header == token ||
			subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			zlog.Logger.Warn().
				Str("ip", c.ClientIP()).
				Str("path", c.Request.URL.Path).
				Msg("admin request rejected: invalid token")
			dto.UnauthorizedError(c, "Unauthorized")
			c.Abort()
			return
		}
		c.Next()
	}
}
