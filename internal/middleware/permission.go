package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/accessd/internal/cache"
	"github.com/charlesng35/accessd/internal/rbac"
	apperrors "github.com/charlesng35/accessd/pkg/errors"
	"github.com/charlesng35/accessd/pkg/metrics"
	"github.com/charlesng35/accessd/pkg/response"
)

// RequirePermission checks that the authenticated user holds the permission,
// consulting the read-through cache when one is wired (permCache may be nil).
func RequirePermission(resolver *rbac.Resolver, permCache *cache.PermissionCache, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(CtxUserIDKey)
		if !ok {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}
		userID, _ := v.(string)

		resolve := func(ctx context.Context) (bool, error) {
			return resolver.HasPermission(ctx, userID, permission)
		}

		var (
			allowed bool
			err     error
		)
		if permCache != nil {
			allowed, err = permCache.Check(c.Request.Context(), userID, permission, resolve)
		} else {
			allowed, err = resolve(c.Request.Context())
		}

		if err != nil {
			metrics.PermissionChecks.WithLabelValues(permission, "error").Inc()
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    apperrors.ErrInternalServer.Code,
					"message": "permission check failed",
				},
			})
			return
		}
		if !allowed {
			metrics.PermissionChecks.WithLabelValues(permission, "denied").Inc()
			response.Error(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}
		metrics.PermissionChecks.WithLabelValues(permission, "allowed").Inc()
		c.Next()
	}
}
