package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/accessd/internal/handlers"
)

func registerAuditRoutes(api *gin.RouterGroup, handler *handlers.AuditHandler, guard func(string) gin.HandlerFunc) {
	api.GET("/audit", guard("audit:view"), handler.List)
}
