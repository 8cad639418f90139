package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/accessd/internal/cache"
	"github.com/charlesng35/accessd/pkg/response"
)

// Health reports readiness: the database must answer a ping; the cache is
// reported but never fails the probe because the service degrades without it.
func Health(db *gorm.DB, store cache.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(requestContext(c), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		dbState := "ok"
		if err := pingDatabase(ctx, db); err != nil {
			dbState = "unavailable"
			status = http.StatusServiceUnavailable
		}

		cacheState := "disabled"
		if store != nil {
			cacheState = "ok"
			if rs, ok := store.(*cache.RedisStore); ok {
				if err := rs.Ping(ctx); err != nil {
					cacheState = "unavailable"
				}
			}
		}

		payload := gin.H{
			"status":   "ok",
			"database": dbState,
			"cache":    cacheState,
		}
		if status != http.StatusOK {
			payload["status"] = "degraded"
			c.JSON(status, payload)
			return
		}
		response.Success(c, status, payload)
	}
}

func pingDatabase(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return gorm.ErrInvalidDB
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
