package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/charlesng35/accessd/internal/app"
	"github.com/charlesng35/accessd/internal/cache"
	"github.com/charlesng35/accessd/internal/handlers"
	"github.com/charlesng35/accessd/internal/middleware"
	"github.com/charlesng35/accessd/internal/rbac"
	"github.com/charlesng35/accessd/internal/services"
)

// Deps bundles everything the router needs. All services are constructed by
// the caller and injected; the router owns no state.
type Deps struct {
	DB          *gorm.DB
	Config      *app.Config
	Resolver    *rbac.Resolver
	Permissions *services.PermissionService
	Roles       *services.RoleService
	Assignments *services.AssignmentService
	Users       *services.UserService
	Audit       *services.AuditService
	CacheStore  cache.Store
	PermCache   *cache.PermissionCache
}

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if deps.Config == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if deps.Resolver == nil {
		return nil, fmt.Errorf("resolver must be provided")
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.RateLimit(deps.CacheStore, deps.Config.Server.RateLimit, time.Minute))

	r.GET("/health", handlers.Health(deps.DB, deps.CacheStore))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(middleware.Auth(deps.Config.Auth.JWTSecret))

	permissionHandler := handlers.NewPermissionHandler(deps.Permissions, deps.Resolver)
	roleHandler := handlers.NewRoleHandler(deps.Roles)
	assignmentHandler := handlers.NewAssignmentHandler(deps.Assignments, deps.Resolver)
	userHandler := handlers.NewUserHandler(deps.Users)
	auditHandler := handlers.NewAuditHandler(deps.Audit)

	guard := func(permission string) gin.HandlerFunc {
		return middleware.RequirePermission(deps.Resolver, deps.PermCache, permission)
	}

	registerPermissionRoutes(api, permissionHandler, guard)
	registerRoleRoutes(api, roleHandler, guard)
	registerAssignmentRoutes(api, assignmentHandler, guard)
	registerUserRoutes(api, userHandler, assignmentHandler, guard)
	registerAuditRoutes(api, auditHandler, guard)

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
