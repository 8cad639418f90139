package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/accessd/internal/cache"
)

func newRateLimitTestRouter(t *testing.T, store cache.Store, limit int) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(store, limit, time.Minute))
	r.GET("/probe", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func newRateLimitStore(t *testing.T) cache.Store {
	t.Helper()

	srv := miniredis.RunT(t)
	store, err := cache.NewRedisStore(cache.RedisConfig{Address: srv.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestRateLimitAllowsWithinWindow(t *testing.T) {
	r := newRateLimitTestRouter(t, newRateLimitStore(t), 3)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	r := newRateLimitTestRouter(t, newRateLimitStore(t), 2)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		r.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/probe", nil))
	}

	require.Equal(t, http.StatusTooManyRequests, last.Code)
	require.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimitDisabledWithoutStore(t *testing.T) {
	r := newRateLimitTestRouter(t, nil, 1)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimitDisabledWithZeroLimit(t *testing.T) {
	r := newRateLimitTestRouter(t, newRateLimitStore(t), 0)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}
