package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/accessd/internal/rbac"
	"github.com/charlesng35/accessd/internal/services"
	apperrors "github.com/charlesng35/accessd/pkg/errors"
	"github.com/charlesng35/accessd/pkg/response"
	"github.com/charlesng35/accessd/pkg/validator"
)

type PermissionHandler struct {
	svc      *services.PermissionService
	resolver *rbac.Resolver
}

func NewPermissionHandler(svc *services.PermissionService, resolver *rbac.Resolver) *PermissionHandler {
	return &PermissionHandler{svc: svc, resolver: resolver}
}

type createPermissionRequest struct {
	Name        string `json:"name" validate:"required"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
}

// POST /api/permissions
func (h *PermissionHandler) Create(c *gin.Context) {
	var body createPermissionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, apperrors.ErrBadRequest)
		return
	}
	if err := validator.ValidateStruct(body); err != nil {
		response.Error(c, apperrors.NewValidation(err.Error()))
		return
	}

	perm, err := h.svc.CreatePermission(requestContext(c), services.CreatePermissionInput{
		Name:        body.Name,
		DisplayName: body.DisplayName,
		Description: body.Description,
		Category:    body.Category,
		Resource:    body.Resource,
		Action:      body.Action,
		ActorID:     actorID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, perm)
}

// GET /api/permissions
func (h *PermissionHandler) List(c *gin.Context) {
	perms, err := h.svc.ListPermissions(requestContext(c), c.Query("category"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, perms)
}

// GET /api/permissions/:name
func (h *PermissionHandler) Get(c *gin.Context) {
	perm, err := h.svc.GetPermission(requestContext(c), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, perm)
}

// POST /api/permissions/:name/deactivate
func (h *PermissionHandler) Deactivate(c *gin.Context) {
	if err := h.svc.DeactivatePermission(requestContext(c), c.Param("name"), actorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deactivated": true})
}

// GET /api/permissions/my
func (h *PermissionHandler) MyPermissions(c *gin.Context) {
	userID := actorID(c)
	if userID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	perms, err := h.resolver.EffectivePermissions(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, perms)
}

// GET /api/permissions/check?user_id=&permission=
func (h *PermissionHandler) Check(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		userID = actorID(c)
	}
	permission := c.Query("permission")

	allowed, err := h.resolver.HasPermission(requestContext(c), userID, permission)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"user_id":    userID,
		"permission": permission,
		"allowed":    allowed,
	})
}
