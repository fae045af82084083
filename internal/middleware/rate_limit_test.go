package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		t.Skip("REDIS_HOST not set")
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}
	client := redis.NewClient(&redis.Options{Addr: host + ":" + port})
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(testRedis(t), RateLimitConfig{
		Window:    time.Minute,
		Limit:     2,
		KeyPrefix: "test:" + uuid.NewString(),
	})
	ctx := context.Background()

	reached, err := rl.Reached(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, reached)

	require.NoError(t, rl.IncrementUsage(ctx, "u1"))
	allowed, remaining, _, err := rl.CheckOnly(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, remaining)

	require.NoError(t, rl.IncrementUsage(ctx, "u1"))
	reached, err = rl.Reached(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, reached)

	reached, err = rl.Reached(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, reached)
}

func TestQuotaMiddleware(t *testing.T) {
	rl := NewRateLimiter(testRedis(t), RateLimitConfig{
		Window:    time.Minute,
		Limit:     1,
		KeyPrefix: "test:" + uuid.NewString(),
	})

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ContextUserID, "u1")
		c.Next()
	})
	router.POST("/ok", rl.QuotaMiddleware(), func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/bad", rl.QuotaMiddleware(), func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	send := func(path string) int {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
		return w.Code
	}

	assert.Equal(t, http.StatusBadRequest, send("/bad"))
	assert.Equal(t, http.StatusOK, send("/ok"))
	assert.Equal(t, http.StatusTooManyRequests, send("/ok"))
}
