package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniss699/bidguard/internal/monitoring"
)

// newThrottledLimiter builds an in-memory limiter that blocks from the
// second request on
func newThrottledLimiter(t *testing.T) *RateLimiter {
	t.Helper()
	client, err := NewRedisClient("", "", 0)
	require.NoError(t, err)
	cfg := Config{IPLimitPerMin: 1, MissionTriggersMin: 1, BurstMultiplier: 1}
	return NewRateLimiter(client, cfg, monitoring.NewMetrics())
}

func TestIPRateLimitMiddlewareRejectsWithStructuredError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := newThrottledLimiter(t)

	r := gin.New()
	r.Use(rl.IPRateLimitMiddleware())
	r.GET("/score", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/score", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/score", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), `"category":"rate_limit"`)
	assert.Contains(t, second.Body.String(), "Rate limit exceeded")
}

func TestMissionRateLimitMiddlewareIsPerMission(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := newThrottledLimiter(t)

	r := gin.New()
	r.POST("/missions/:id/analyze", rl.MissionRateLimitMiddleware(), func(c *gin.Context) {
		c.String(http.StatusAccepted, "scheduled")
	})

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/missions/m1/analyze", nil))
	require.Equal(t, http.StatusAccepted, first.Code)

	blocked := httptest.NewRecorder()
	r.ServeHTTP(blocked, httptest.NewRequest(http.MethodPost, "/missions/m1/analyze", nil))
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Contains(t, blocked.Body.String(), `"category":"rate_limit"`)

	// an exhausted mission must not throttle a different one
	other := httptest.NewRecorder()
	r.ServeHTTP(other, httptest.NewRequest(http.MethodPost, "/missions/m2/analyze", nil))
	assert.Equal(t, http.StatusAccepted, other.Code)
}
