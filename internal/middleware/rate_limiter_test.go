package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedRouter(rl *rateLimiterMap) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/write", rl.handler(), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func post(r *gin.Engine, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/write", nil)
	req.RemoteAddr = remote
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	t.Run("Rejects Requests Beyond Burst", func(t *testing.T) {
		rl := NewRateLimiterMap(RateLimiterConfig{RequestsPerSecond: 0.001, Burst: 2})
		r := newLimitedRouter(rl)

		assert.Equal(t, http.StatusOK, post(r, "10.0.0.1:1000").Code)
		assert.Equal(t, http.StatusOK, post(r, "10.0.0.1:1001").Code)

		w := post(r, "10.0.0.1:1002")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), "retry_after")
	})

	t.Run("Limits Each Client Separately", func(t *testing.T) {
		rl := NewRateLimiterMap(RateLimiterConfig{RequestsPerSecond: 0.001, Burst: 1})
		r := newLimitedRouter(rl)

		assert.Equal(t, http.StatusOK, post(r, "10.0.0.1:1000").Code)
		assert.Equal(t, http.StatusTooManyRequests, post(r, "10.0.0.1:1000").Code)
		assert.Equal(t, http.StatusOK, post(r, "10.0.0.2:1000").Code)
		assert.Equal(t, 2, rl.size())
	})

	t.Run("Evicts Idle Clients", func(t *testing.T) {
		now := time.Unix(1_700_000_000, 0)
		rl := NewRateLimiterMap(RateLimiterConfig{RequestsPerSecond: 1, Burst: 1})
		rl.now = func() time.Time { return now }

		rl.getLimiter("10.0.0.1")
		now = now.Add(limiterIdleTTL / 2)
		rl.getLimiter("10.0.0.2")
		now = now.Add(limiterIdleTTL/2 + time.Second)

		require.Equal(t, 1, rl.sweep())
		assert.Equal(t, 1, rl.size())
	})
}
