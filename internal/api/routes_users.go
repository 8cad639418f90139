package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/accessd/internal/handlers"
)

func registerUserRoutes(api *gin.RouterGroup, users *handlers.UserHandler, assignments *handlers.AssignmentHandler, guard func(string) gin.HandlerFunc) {
	group := api.Group("/users")
	{
		group.GET("", guard("user:view"), users.List)
		group.POST("", guard("user:manage"), users.Create)
		group.GET("/:id", guard("user:view"), users.Get)
		group.GET("/:id/roles", guard("assignment:view"), assignments.UserRoles)
		group.GET("/:id/assignments", guard("assignment:view"), assignments.UserAssignments)
		group.GET("/:id/has-role/:name", guard("assignment:view"), assignments.HasRole)
	}
}
