package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/accessd/internal/handlers"
)

func registerAssignmentRoutes(api *gin.RouterGroup, handler *handlers.AssignmentHandler, guard func(string) gin.HandlerFunc) {
	assignments := api.Group("/assignments")
	{
		assignments.POST("", guard("assignment:manage"), handler.Assign)
		assignments.DELETE("", guard("assignment:manage"), handler.Revoke)
		assignments.POST("/batch", guard("assignment:manage"), handler.Batch)
	}
}
