package rbac

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/accessd/internal/models"
	apperrors "github.com/charlesng35/accessd/pkg/errors"
)

// Resolver answers role and permission membership queries from the
// assignment ledger and role catalog. It keeps no state of its own: every
// query reads the store, so catalog edits take effect on the next call
// without any invalidation bookkeeping here.
type Resolver struct {
	db *gorm.DB
}

// NewResolver constructs a resolver backed by the provided database.
func NewResolver(db *gorm.DB) (*Resolver, error) {
	if db == nil {
		return nil, errors.New("rbac: resolver requires a db handle")
	}
	return &Resolver{db: db}, nil
}

// HasRole reports whether an active assignment links the user to an active
// role carrying the given name. Unknown users simply hold no roles.
func (r *Resolver) HasRole(ctx context.Context, userID, roleName string) (bool, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, apperrors.NewValidation("user id is required")
	}
	roleName = strings.TrimSpace(roleName)
	if roleName == "" {
		return false, apperrors.NewValidation("role name is required")
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RoleAssignment{}).
		Joins("JOIN roles ON roles.id = role_assignments.role_id").
		Where("role_assignments.user_id = ? AND role_assignments.is_active = ?", userID, true).
		Where("roles.name = ? AND roles.is_active = ?", roleName, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("rbac: has role: %w", err)
	}
	return count > 0, nil
}

// HasPermission reports whether the union of permissions across the user's
// active roles covers the requested concrete name. A grant covers the
// request on an exact match, a matching "resource:*", or "*:*".
func (r *Resolver) HasPermission(ctx context.Context, userID, permission string) (bool, error) {
	ctx = ensureContext(ctx)

	requested, err := ParseName(permission)
	if err != nil {
		return false, apperrors.NewValidation(err.Error())
	}

	granted, err := r.grantedNames(ctx, userID)
	if err != nil {
		return false, err
	}

	for _, name := range granted {
		if name.Grants(requested) {
			return true, nil
		}
	}
	return false, nil
}

// EffectivePermissions returns the sorted, distinct permission names granted
// to the user through active assignments.
func (r *Resolver) EffectivePermissions(ctx context.Context, userID string) ([]string, error) {
	ctx = ensureContext(ctx)

	granted, err := r.grantedNames(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(granted))
	out := make([]string, 0, len(granted))
	for _, name := range granted {
		key := name.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out, nil
}

func (r *Resolver) grantedNames(ctx context.Context, userID string) ([]Name, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.NewValidation("user id is required")
	}

	var roles []models.Role
	err := r.db.WithContext(ctx).
		Joins("JOIN role_assignments ON role_assignments.role_id = roles.id").
		Where("role_assignments.user_id = ? AND role_assignments.is_active = ?", userID, true).
		Where("roles.is_active = ?", true).
		Preload("Permissions", "is_active = ?", true).
		Find(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("rbac: load roles for user: %w", err)
	}

	var names []Name
	for _, role := range roles {
		for _, perm := range role.Permissions {
			name, err := ParseName(perm.Name)
			if err != nil {
				// A malformed stored name cannot grant anything.
				continue
			}
			names = append(names, name)
		}
	}
	return names, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
