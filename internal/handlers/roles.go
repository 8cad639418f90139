package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/accessd/internal/services"
	apperrors "github.com/charlesng35/accessd/pkg/errors"
	"github.com/charlesng35/accessd/pkg/response"
	"github.com/charlesng35/accessd/pkg/validator"
)

type RoleHandler struct {
	svc *services.RoleService
}

func NewRoleHandler(svc *services.RoleService) *RoleHandler {
	return &RoleHandler{svc: svc}
}

type createRoleRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=128"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
	Priority    int      `json:"priority" validate:"gte=0,lte=1000"`
}

// POST /api/roles
func (h *RoleHandler) Create(c *gin.Context) {
	var body createRoleRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, apperrors.ErrBadRequest)
		return
	}
	if err := validator.ValidateStruct(body); err != nil {
		response.Error(c, apperrors.NewValidation(err.Error()))
		return
	}

	role, err := h.svc.CreateRole(requestContext(c), services.CreateRoleInput{
		Name:        body.Name,
		DisplayName: body.DisplayName,
		Description: body.Description,
		Permissions: body.Permissions,
		Priority:    body.Priority,
		CreatedBy:   actorID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, role)
}

// GET /api/roles
func (h *RoleHandler) List(c *gin.Context) {
	roles, err := h.svc.ListRoles(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, roles)
}

// GET /api/roles/:id
func (h *RoleHandler) Get(c *gin.Context) {
	role, err := h.svc.GetRole(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, role)
}

// PUT /api/roles/:id/permissions
func (h *RoleHandler) SetPermissions(c *gin.Context) {
	var body struct {
		Permissions []string `json:"permissions"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, apperrors.ErrBadRequest)
		return
	}

	if err := h.svc.UpdateRolePermissions(requestContext(c), c.Param("id"), body.Permissions, actorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": true})
}

// POST /api/roles/:id/deactivate
func (h *RoleHandler) Deactivate(c *gin.Context) {
	if err := h.svc.DeactivateRole(requestContext(c), c.Param("id"), actorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deactivated": true})
}
