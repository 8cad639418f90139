package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/accessd/internal/rbac"
	"github.com/charlesng35/accessd/internal/services"
	apperrors "github.com/charlesng35/accessd/pkg/errors"
	"github.com/charlesng35/accessd/pkg/response"
	"github.com/charlesng35/accessd/pkg/validator"
)

type AssignmentHandler struct {
	svc      *services.AssignmentService
	resolver *rbac.Resolver
}

func NewAssignmentHandler(svc *services.AssignmentService, resolver *rbac.Resolver) *AssignmentHandler {
	return &AssignmentHandler{svc: svc, resolver: resolver}
}

type assignRoleRequest struct {
	UserID string `json:"user_id" validate:"required"`
	RoleID string `json:"role_id" validate:"required"`
	Reason string `json:"reason"`
}

// POST /api/assignments
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var body assignRoleRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, apperrors.ErrBadRequest)
		return
	}
	if err := validator.ValidateStruct(body); err != nil {
		response.Error(c, apperrors.NewValidation(err.Error()))
		return
	}

	assignment, err := h.svc.AssignRole(requestContext(c), services.AssignRoleInput{
		UserID:     body.UserID,
		RoleID:     body.RoleID,
		Reason:     body.Reason,
		AssignedBy: actorID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, assignment)
}

// DELETE /api/assignments
func (h *AssignmentHandler) Revoke(c *gin.Context) {
	var body struct {
		UserID string `json:"user_id"`
		RoleID string `json:"role_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.UserID == "" || body.RoleID == "" {
		response.Error(c, apperrors.ErrBadRequest)
		return
	}

	if err := h.svc.RevokeRole(requestContext(c), body.UserID, body.RoleID, actorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}

type batchAssignRequest struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1"`
	RoleIDs []string `json:"role_ids" validate:"required,min=1"`
	Action  string   `json:"action" validate:"required,oneof=assign revoke"`
	Reason  string   `json:"reason"`
}

// POST /api/assignments/batch
func (h *AssignmentHandler) Batch(c *gin.Context) {
	var body batchAssignRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, apperrors.ErrBadRequest)
		return
	}
	if err := validator.ValidateStruct(body); err != nil {
		response.Error(c, apperrors.NewValidation(err.Error()))
		return
	}

	result, err := h.svc.BatchAssignRoles(requestContext(c), services.BatchAssignInput{
		UserIDs: body.UserIDs,
		RoleIDs: body.RoleIDs,
		Action:  services.BatchAction(body.Action),
		Reason:  body.Reason,
		ActorID: actorID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// GET /api/users/:id/roles
func (h *AssignmentHandler) UserRoles(c *gin.Context) {
	roles, err := h.svc.UserRoles(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, roles)
}

// GET /api/users/:id/assignments?include_revoked=true
func (h *AssignmentHandler) UserAssignments(c *gin.Context) {
	includeRevoked, _ := strconv.ParseBool(c.DefaultQuery("include_revoked", "false"))

	records, err := h.svc.UserAssignments(requestContext(c), c.Param("id"), includeRevoked)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, records)
}

// GET /api/users/:id/has-role/:name
func (h *AssignmentHandler) HasRole(c *gin.Context) {
	ok, err := h.resolver.HasRole(requestContext(c), c.Param("id"), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"has_role": ok})
}
