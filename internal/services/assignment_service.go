package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/accessd/internal/models"
	"github.com/charlesng35/accessd/internal/rbac"
	apperrors "github.com/charlesng35/accessd/pkg/errors"
	"github.com/charlesng35/accessd/pkg/metrics"
)

// AssignmentService writes the append-only role assignment ledger and drives
// batch assign/revoke runs.
type AssignmentService struct {
	db           *gorm.DB
	auditService *AuditService
	notifier     *rbac.Notifier

	// strictAssign turns re-assigning an already-active pair from an
	// idempotent no-op into a conflict error.
	strictAssign bool
}

// AssignmentOption customises the AssignmentService.
type AssignmentOption func(*AssignmentService)

// WithStrictAssign makes AssignRole reject already-active pairs with
// ErrAssignmentConflict instead of returning the existing record.
func WithStrictAssign() AssignmentOption {
	return func(s *AssignmentService) {
		s.strictAssign = true
	}
}

// NewAssignmentService constructs an AssignmentService using the provided database handle.
func NewAssignmentService(db *gorm.DB, audit *AuditService, notifier *rbac.Notifier, opts ...AssignmentOption) (*AssignmentService, error) {
	if db == nil {
		return nil, errors.New("assignment service: db is required")
	}
	svc := &AssignmentService{
		db:           db,
		auditService: audit,
		notifier:     notifier,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// AssignRoleInput describes the payload accepted by AssignRole.
type AssignRoleInput struct {
	UserID     string
	RoleID     string
	Reason     string
	AssignedBy string
}

// AssignRole inserts a new active ledger row linking the user to the role.
// Assigning an already-active pair returns the existing row unchanged. The
// unique index on the active pair key absorbs check-then-act races: the
// losing writer re-reads and returns the winner's row.
func (s *AssignmentService) AssignRole(ctx context.Context, input AssignRoleInput) (*models.RoleAssignment, error) {
	ctx = ensureContext(ctx)

	userID := strings.TrimSpace(input.UserID)
	roleID := strings.TrimSpace(input.RoleID)
	if userID == "" || roleID == "" {
		return nil, apperrors.NewValidation("user id and role id are required")
	}

	var assignment *models.RoleAssignment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.User{}, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("assignment service: load user: %w", err)
		}

		var role models.Role
		if err := tx.First(&role, "id = ?", roleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoleNotFound
			}
			return fmt.Errorf("assignment service: load role: %w", err)
		}
		if !role.IsActive {
			return ErrRoleNotFound
		}

		var existing models.RoleAssignment
		err := tx.First(&existing, "user_id = ? AND role_id = ? AND is_active = ?", userID, roleID, true).Error
		switch {
		case err == nil:
			if s.strictAssign {
				return ErrAssignmentConflict
			}
			assignment = &existing
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("assignment service: load assignment: %w", err)
		}

		key := models.PairKey(userID, roleID)
		record := &models.RoleAssignment{
			UserID:     userID,
			RoleID:     roleID,
			Reason:     strings.TrimSpace(input.Reason),
			AssignedBy: optionalID(input.AssignedBy),
			IsActive:   true,
			ActiveKey:  &key,
		}
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		assignment = record
		return nil
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			// A concurrent writer inserted the active pair first.
			if s.strictAssign {
				return nil, ErrAssignmentConflict
			}
			return s.activeAssignment(ctx, userID, roleID)
		}
		metrics.RoleAssignments.WithLabelValues("assign", "error").Inc()
		return nil, asAppError(err, "assignment service: assign role")
	}

	metrics.RoleAssignments.WithLabelValues("assign", "success").Inc()

	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  optionalID(input.AssignedBy),
		Action:   "assignment.assign",
		Resource: models.PairKey(userID, roleID),
		Result:   "success",
		Metadata: map[string]any{
			"user_id": userID,
			"role_id": roleID,
			"reason":  strings.TrimSpace(input.Reason),
		},
	})

	s.notifier.Publish(ctx, rbac.Mutation{
		Kind:    rbac.MutationAssign,
		RoleID:  roleID,
		UserIDs: []string{userID},
	})

	return assignment, nil
}

// RevokeRole deactivates the active ledger row for the pair, stamping the
// revocation time and actor. Revoking a pair with no active row is a no-op.
func (s *AssignmentService) RevokeRole(ctx context.Context, userID, roleID, revokedBy string) error {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	roleID = strings.TrimSpace(roleID)
	if userID == "" || roleID == "" {
		return apperrors.NewValidation("user id and role id are required")
	}

	var revoked bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		res := tx.Model(&models.RoleAssignment{}).
			Where("user_id = ? AND role_id = ? AND is_active = ?", userID, roleID, true).
			Updates(map[string]any{
				"is_active":  false,
				"active_key": nil,
				"revoked_at": now,
				"revoked_by": optionalID(revokedBy),
			})
		if res.Error != nil {
			return fmt.Errorf("assignment service: revoke: %w", res.Error)
		}
		revoked = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		metrics.RoleAssignments.WithLabelValues("revoke", "error").Inc()
		return err
	}

	if !revoked {
		return nil
	}

	metrics.RoleAssignments.WithLabelValues("revoke", "success").Inc()

	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  optionalID(revokedBy),
		Action:   "assignment.revoke",
		Resource: models.PairKey(userID, roleID),
		Result:   "success",
		Metadata: map[string]any{
			"user_id": userID,
			"role_id": roleID,
		},
	})

	s.notifier.Publish(ctx, rbac.Mutation{
		Kind:    rbac.MutationRevoke,
		RoleID:  roleID,
		UserIDs: []string{userID},
	})

	return nil
}

// UserRoles returns the active roles held by the user, ordered by priority
// descending with ties broken by name for reproducible listings.
func (s *AssignmentService) UserRoles(ctx context.Context, userID string) ([]models.Role, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.NewValidation("user id is required")
	}

	var roles []models.Role
	err := s.db.WithContext(ctx).
		Joins("JOIN role_assignments ON role_assignments.role_id = roles.id").
		Where("role_assignments.user_id = ? AND role_assignments.is_active = ?", userID, true).
		Where("roles.is_active = ?", true).
		Preload("Permissions").
		Order("roles.priority DESC").
		Order("roles.name ASC").
		Find(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("assignment service: list user roles: %w", err)
	}
	return roles, nil
}

// UserAssignments returns the user's ledger rows, newest first. With
// includeRevoked the full audit history is returned, not just active rows.
func (s *AssignmentService) UserAssignments(ctx context.Context, userID string, includeRevoked bool) ([]models.RoleAssignment, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.NewValidation("user id is required")
	}

	query := s.db.WithContext(ctx).
		Preload("Role").
		Where("user_id = ?", userID)
	if !includeRevoked {
		query = query.Where("is_active = ?", true)
	}

	var records []models.RoleAssignment
	if err := query.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("assignment service: list assignments: %w", err)
	}
	return records, nil
}

func (s *AssignmentService) activeAssignment(ctx context.Context, userID, roleID string) (*models.RoleAssignment, error) {
	var existing models.RoleAssignment
	err := s.db.WithContext(ctx).
		First(&existing, "user_id = ? AND role_id = ? AND is_active = ?", userID, roleID, true).Error
	if err != nil {
		return nil, fmt.Errorf("assignment service: reload assignment: %w", err)
	}
	return &existing, nil
}
