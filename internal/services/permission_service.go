package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/accessd/internal/models"
	"github.com/charlesng35/accessd/internal/rbac"
	apperrors "github.com/charlesng35/accessd/pkg/errors"
)

// PermissionService manages the permission registry. Permissions are created
// explicitly, never hard-deleted, and their names are immutable.
type PermissionService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewPermissionService constructs a PermissionService using the provided database handle.
func NewPermissionService(db *gorm.DB, audit *AuditService) (*PermissionService, error) {
	if db == nil {
		return nil, errors.New("permission service: db is required")
	}
	return &PermissionService{
		db:           db,
		auditService: audit,
	}, nil
}

// CreatePermissionInput describes the payload accepted by CreatePermission.
// Resource and Action may be left blank to derive them from Name; when
// supplied they must agree with the name's segments.
type CreatePermissionInput struct {
	Name        string
	DisplayName string
	Description string
	Category    string
	Resource    string
	Action      string
	ActorID     string
}

// CreatePermission registers a new permission in the catalog.
func (s *PermissionService) CreatePermission(ctx context.Context, input CreatePermissionInput) (*models.Permission, error) {
	ctx = ensureContext(ctx)

	parsed, err := rbac.ParseName(input.Name)
	if err != nil {
		return nil, apperrors.NewValidation(err.Error())
	}

	if resource := strings.TrimSpace(input.Resource); resource != "" && resource != parsed.Resource {
		return nil, apperrors.NewValidation(
			fmt.Sprintf("resource %q does not match permission name %q", resource, parsed.String()))
	}
	if action := strings.TrimSpace(input.Action); action != "" && action != parsed.Action {
		return nil, apperrors.NewValidation(
			fmt.Sprintf("action %q does not match permission name %q", action, parsed.String()))
	}

	perm := &models.Permission{
		Name:        parsed.String(),
		DisplayName: strings.TrimSpace(input.DisplayName),
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		Resource:    parsed.Resource,
		Action:      parsed.Action,
		IsActive:    true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(perm).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrDuplicate.WithMessage(
				fmt.Sprintf("permission %q already exists", perm.Name))
		}
		return nil, fmt.Errorf("permission service: create permission: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  optionalID(input.ActorID),
		Action:   "permission.create",
		Resource: perm.Name,
		Result:   "success",
		Metadata: map[string]any{
			"category": perm.Category,
		},
	})

	return perm, nil
}

// GetPermission loads a permission by its unique name.
func (s *PermissionService) GetPermission(ctx context.Context, name string) (*models.Permission, error) {
	ctx = ensureContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidation("permission name is required")
	}

	var perm models.Permission
	if err := s.db.WithContext(ctx).First(&perm, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPermissionNotFound
		}
		return nil, fmt.Errorf("permission service: load permission: %w", err)
	}
	return &perm, nil
}

// ListPermissions returns the catalog, optionally filtered by category,
// ordered by name for stable responses.
func (s *PermissionService) ListPermissions(ctx context.Context, category string) ([]models.Permission, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.Permission{})
	if category = strings.TrimSpace(category); category != "" {
		query = query.Where("category = ?", category)
	}

	var perms []models.Permission
	if err := query.Order("name ASC").Find(&perms).Error; err != nil {
		return nil, fmt.Errorf("permission service: list permissions: %w", err)
	}
	return perms, nil
}

// DeactivatePermission retires a permission without deleting it. Deactivated
// permissions stop granting access on the next resolver query.
func (s *PermissionService) DeactivatePermission(ctx context.Context, name, actorID string) error {
	ctx = ensureContext(ctx)

	perm, err := s.GetPermission(ctx, name)
	if err != nil {
		return err
	}

	if perm.IsActive {
		err = s.db.WithContext(ctx).
			Model(perm).
			Update("is_active", false).Error
		if err != nil {
			return fmt.Errorf("permission service: deactivate permission: %w", err)
		}
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  optionalID(actorID),
		Action:   "permission.deactivate",
		Resource: perm.Name,
		Result:   "success",
	})

	return nil
}
