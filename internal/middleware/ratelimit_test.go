package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cycup_backend/internal/config"
	"cycup_backend/internal/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRateLimitedRouter(rdb *database.Redis, limit config.BucketLimit) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(rdb, "auth", limit))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *database.Redis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, database.NewRedisFromClient(client)
}

func doPing(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":12345"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_BlocksAfterLimit(t *testing.T) {
	// Arrange
	_, rdb := newMiniRedis(t)
	r := newRateLimitedRouter(rdb, config.BucketLimit{Requests: 2, WindowSeconds: 60})

	// Act
	first := doPing(r, "10.0.0.1")
	second := doPing(r, "10.0.0.1")
	third := doPing(r, "10.0.0.1")
	otherIP := doPing(r, "10.0.0.2")

	// Assert
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, first.Header().Get("X-RateLimit-Reset"))

	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.Equal(t, "60", third.Header().Get("Retry-After"))
	assert.Contains(t, third.Body.String(), "Too many requests. Please try again later.")

	assert.Equal(t, http.StatusOK, otherIP.Code, "у каждого IP свой счетчик")
}

func TestRateLimit_WindowResets(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	r := newRateLimitedRouter(rdb, config.BucketLimit{Requests: 1, WindowSeconds: 10})

	require.Equal(t, http.StatusOK, doPing(r, "10.0.0.1").Code)
	require.Equal(t, http.StatusTooManyRequests, doPing(r, "10.0.0.1").Code)

	mr.FastForward(11 * time.Second)

	assert.Equal(t, http.StatusOK, doPing(r, "10.0.0.1").Code)
}

func TestRateLimit_WithoutRedisPassesThrough(t *testing.T) {
	r := newRateLimitedRouter(nil, config.BucketLimit{Requests: 1, WindowSeconds: 60})

	for i := 0; i < 5; i++ {
		w := doPing(r, "10.0.0.1")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimit_RedisDownFailsOpen(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	r := newRateLimitedRouter(rdb, config.BucketLimit{Requests: 1, WindowSeconds: 60})
	mr.Close()

	w := doPing(r, "10.0.0.1")

	assert.Equal(t, http.StatusOK, w.Code)
}
