package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/accessd/internal/cache"
	"github.com/charlesng35/accessd/internal/database/testutil"
)

func TestHealthReportsOK(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", Health(db, cache.NewDatabaseStore(db)))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"database":"ok"`)
	require.Contains(t, w.Body.String(), `"cache":"ok"`)
}

func TestHealthReportsCacheDisabled(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", Health(db, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"cache":"disabled"`)
}

func TestHealthFailsWhenDatabaseDown(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", Health(db, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), `"status":"degraded"`)
}
