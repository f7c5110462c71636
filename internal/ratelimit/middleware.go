package ratelimit

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aniss699/bidguard/internal/errors"
)

// IPRateLimitMiddleware creates middleware for IP-based rate limiting
func (rl *RateLimiter) IPRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ip := c.ClientIP()

		result, err := rl.AllowIP(ctx, ip)
		if err != nil {
			// Never block traffic on limiter failure
			slog.Error("Rate limit check failed", "ip", ip, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitBlock()
			}
			retryAfter := strconv.Itoa(int(result.RetryAfter.Seconds()))
			c.Header("Retry-After", retryAfter)

			appErr := errors.NewRateLimitError(retryAfter + "s")
			errors.LogError(c, appErr)
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
			return
		}

		c.Next()
	}
}

// MissionRateLimitMiddleware limits analysis triggers per mission so a
// bid-submission burst cannot queue redundant recomputations
func (rl *RateLimiter) MissionRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		missionID := c.Param("id")
		if missionID == "" {
			c.Next()
			return
		}

		result, err := rl.AllowMission(c.Request.Context(), missionID)
		if err != nil {
			slog.Error("Mission rate limit check failed", "mission_id", missionID, "error", err)
			c.Next()
			return
		}

		if !result.Allowed {
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitBlock()
			}
			retryAfter := strconv.Itoa(int(result.RetryAfter.Seconds()))
			c.Header("Retry-After", retryAfter)

			appErr := errors.NewRateLimitError(retryAfter + "s")
			errors.LogError(c, appErr)
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
			return
		}

		c.Next()
	}
}
