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

// Role priority bounds. Priority orders a user's roles in listings and has
// no effect on permission resolution.
const (
	MinRolePriority = 0
	MaxRolePriority = 1000
)

// RoleService manages the role catalog.
type RoleService struct {
	db           *gorm.DB
	auditService *AuditService
	notifier     *rbac.Notifier
}

// NewRoleService constructs a RoleService using the provided database handle.
func NewRoleService(db *gorm.DB, audit *AuditService, notifier *rbac.Notifier) (*RoleService, error) {
	if db == nil {
		return nil, errors.New("role service: db is required")
	}
	return &RoleService{
		db:           db,
		auditService: audit,
		notifier:     notifier,
	}, nil
}

// CreateRoleInput describes the payload accepted by CreateRole.
type CreateRoleInput struct {
	Name        string
	DisplayName string
	Description string
	Permissions []string
	Priority    int
	CreatedBy   string
}

// CreateRole registers a new role. Every listed permission name must already
// exist in the registry; unknown names fail the whole create.
func (s *RoleService) CreateRole(ctx context.Context, input CreateRoleInput) (*models.Role, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidation("role name is required")
	}
	if input.Priority < MinRolePriority || input.Priority > MaxRolePriority {
		return nil, apperrors.NewValidation(
			fmt.Sprintf("priority %d outside allowed range [%d, %d]", input.Priority, MinRolePriority, MaxRolePriority))
	}

	permNames := normaliseIDs(input.Permissions)

	role := &models.Role{
		Name:        name,
		DisplayName: strings.TrimSpace(input.DisplayName),
		Description: strings.TrimSpace(input.Description),
		Priority:    input.Priority,
		CreatedBy:   optionalID(input.CreatedBy),
		IsActive:    true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		perms, err := loadPermissionsByName(tx, permNames)
		if err != nil {
			return err
		}
		role.Permissions = perms
		return tx.Create(role).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrDuplicate.WithMessage(
				fmt.Sprintf("role %q already exists", name))
		}
		return nil, asAppError(err, "role service: create role")
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  optionalID(input.CreatedBy),
		Action:   "role.create",
		Resource: role.ID,
		Result:   "success",
		Metadata: map[string]any{
			"name":        role.Name,
			"priority":    role.Priority,
			"permissions": permNames,
		},
	})

	return role, nil
}

// UpdateRolePermissions atomically replaces the role's permission list. The
// same referential check as CreateRole applies. On success every user
// currently holding the role is named in the published mutation so external
// caches can invalidate.
func (s *RoleService) UpdateRolePermissions(ctx context.Context, roleID string, permissions []string, actorID string) error {
	ctx = ensureContext(ctx)

	permNames := normaliseIDs(permissions)

	var affected []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.First(&role, "id = ?", strings.TrimSpace(roleID)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoleNotFound
			}
			return fmt.Errorf("role service: load role: %w", err)
		}

		perms, err := loadPermissionsByName(tx, permNames)
		if err != nil {
			return err
		}

		if err := tx.Model(&role).Association("Permissions").Replace(perms); err != nil {
			return fmt.Errorf("role service: replace permissions: %w", err)
		}

		return tx.Model(&models.RoleAssignment{}).
			Where("role_id = ? AND is_active = ?", role.ID, true).
			Distinct().
			Pluck("user_id", &affected).Error
	})
	if err != nil {
		return asAppError(err, "role service: update role permissions")
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  optionalID(actorID),
		Action:   "role.set_permissions",
		Resource: strings.TrimSpace(roleID),
		Result:   "success",
		Metadata: map[string]any{
			"permissions": permNames,
		},
	})

	s.notifier.Publish(ctx, rbac.Mutation{
		Kind:    rbac.MutationRolePermissions,
		RoleID:  strings.TrimSpace(roleID),
		UserIDs: affected,
	})

	return nil
}

// GetRole loads a role by id with its permissions.
func (s *RoleService) GetRole(ctx context.Context, roleID string) (*models.Role, error) {
	ctx = ensureContext(ctx)

	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return nil, apperrors.NewValidation("role id is required")
	}

	var role models.Role
	err := s.db.WithContext(ctx).
		Preload("Permissions").
		First(&role, "id = ?", roleID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("role service: load role: %w", err)
	}
	return &role, nil
}

// GetRoleByName loads a role by its unique name.
func (s *RoleService) GetRoleByName(ctx context.Context, name string) (*models.Role, error) {
	ctx = ensureContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidation("role name is required")
	}

	var role models.Role
	err := s.db.WithContext(ctx).
		Preload("Permissions").
		First(&role, "name = ?", name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("role service: load role by name: %w", err)
	}
	return &role, nil
}

// ListRoles returns all roles ordered by priority descending, then name.
func (s *RoleService) ListRoles(ctx context.Context) ([]models.Role, error) {
	ctx = ensureContext(ctx)

	var roles []models.Role
	err := s.db.WithContext(ctx).
		Preload("Permissions").
		Order("priority DESC").
		Order("name ASC").
		Find(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("role service: list roles: %w", err)
	}
	return roles, nil
}

// DeactivateRole retires a role; active assignments stop granting on the
// next resolver query. The role row and its ledger history remain.
func (s *RoleService) DeactivateRole(ctx context.Context, roleID, actorID string) error {
	ctx = ensureContext(ctx)

	role, err := s.GetRole(ctx, roleID)
	if err != nil {
		return err
	}

	if role.IsActive {
		if err := s.db.WithContext(ctx).Model(role).Update("is_active", false).Error; err != nil {
			return fmt.Errorf("role service: deactivate role: %w", err)
		}
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  optionalID(actorID),
		Action:   "role.deactivate",
		Resource: role.ID,
		Result:   "success",
		Metadata: map[string]any{"name": role.Name},
	})

	return nil
}

// loadPermissionsByName resolves permission names inside a transaction and
// reports the missing ones as a reference error.
func loadPermissionsByName(tx *gorm.DB, names []string) ([]models.Permission, error) {
	if len(names) == 0 {
		return nil, nil
	}

	var perms []models.Permission
	if err := tx.Where("name IN ?", names).Find(&perms).Error; err != nil {
		return nil, fmt.Errorf("role service: load permissions: %w", err)
	}

	if len(perms) != len(names) {
		found := make(map[string]struct{}, len(perms))
		for _, perm := range perms {
			found[perm.Name] = struct{}{}
		}
		var missing []string
		for _, name := range names {
			if _, ok := found[name]; !ok {
				missing = append(missing, name)
			}
		}
		return nil, apperrors.ErrInvalidReference.WithMessage(
			fmt.Sprintf("unknown permissions: %s", strings.Join(missing, ", ")))
	}

	return perms, nil
}

// asAppError passes AppErrors through untouched and wraps anything else.
func asAppError(err error, msg string) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}
