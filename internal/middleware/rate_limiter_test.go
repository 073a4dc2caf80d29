package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mariofilbert/natours-api/internal/testutil"
	"github.com/mariofilbert/natours-api/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init(true)
}

func setupLimiter(t *testing.T, maxRequests int) (*RateLimiter, *testutil.TestRedis) {
	t.Helper()

	tr := testutil.SetupTestRedis(t)
	t.Cleanup(func() { tr.Teardown(t) })

	client := redis.NewClient(&redis.Options{Addr: tr.Server.Addr()})
	limiter := NewRateLimiter(client, RateLimiterConfig{
		MaxRequests: maxRequests,
		Window:      time.Hour,
	})
	return limiter, tr
}

func limiterRouter(limiter *RateLimiter) *gin.Engine {
	engine := gin.New()
	engine.Use(limiter.Middleware())
	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	})
	return engine
}

func TestRateLimiterAllowsUnderLimit(t *testing.T) {
	limiter, _ := setupLimiter(t, 3)
	engine := limiterRouter(limiter)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	limiter, _ := setupLimiter(t, 2)
	engine := limiterRouter(limiter)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "too many requests")
}

func TestRateLimiterWindowExpires(t *testing.T) {
	limiter, tr := setupLimiter(t, 1)
	engine := limiterRouter(limiter)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	// Advance past the window: the counter key expires
	tr.Server.FastForward(2 * time.Hour)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiterFailsOpenWhenRedisDown(t *testing.T) {
	limiter, tr := setupLimiter(t, 1)
	engine := limiterRouter(limiter)

	tr.Server.Close()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
