package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/accessd/internal/handlers"
)

func registerPermissionRoutes(api *gin.RouterGroup, handler *handlers.PermissionHandler, guard func(string) gin.HandlerFunc) {
	perms := api.Group("/permissions")
	{
		perms.GET("", guard("permission:view"), handler.List)
		perms.POST("", guard("permission:manage"), handler.Create)
		perms.GET("/my", handler.MyPermissions)
		perms.GET("/check", guard("permission:view"), handler.Check)
		perms.GET("/:name", guard("permission:view"), handler.Get)
		perms.POST("/:name/deactivate", guard("permission:manage"), handler.Deactivate)
	}
}
