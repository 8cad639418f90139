package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/accessd/internal/handlers"
)

func registerRoleRoutes(api *gin.RouterGroup, handler *handlers.RoleHandler, guard func(string) gin.HandlerFunc) {
	roles := api.Group("/roles")
	{
		roles.GET("", guard("role:view"), handler.List)
		roles.POST("", guard("role:manage"), handler.Create)
		roles.GET("/:id", guard("role:view"), handler.Get)
		roles.PUT("/:id/permissions", guard("role:manage"), handler.SetPermissions)
		roles.POST("/:id/deactivate", guard("role:manage"), handler.Deactivate)
	}
}
