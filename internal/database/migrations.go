package database

import (
	"gorm.io/gorm"

	"github.com/charlesng35/accessd/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Permission{},
		&models.Role{},
		&models.RoleAssignment{},
		&models.AuditLog{},
		&models.CacheEntry{},
	)
}

// defaultPermissions is the catalog installed on first start. Wildcard rows
// are ordinary permissions so roles can grant them.
var defaultPermissions = []models.Permission{
	{Name: "admin:view", DisplayName: "View admin area", Category: "admin", Resource: "admin", Action: "view"},
	{Name: "admin:create", DisplayName: "Create admin resources", Category: "admin", Resource: "admin", Action: "create"},
	{Name: "admin:update", DisplayName: "Update admin resources", Category: "admin", Resource: "admin", Action: "update"},
	{Name: "admin:delete", DisplayName: "Delete admin resources", Category: "admin", Resource: "admin", Action: "delete"},
	{Name: "admin:*", DisplayName: "Full admin access", Category: "admin", Resource: "admin", Action: "*"},
	{Name: "user:view", DisplayName: "View users", Category: "user", Resource: "user", Action: "view"},
	{Name: "user:manage", DisplayName: "Manage users", Category: "user", Resource: "user", Action: "manage"},
	{Name: "role:view", DisplayName: "View roles", Category: "rbac", Resource: "role", Action: "view"},
	{Name: "role:manage", DisplayName: "Manage roles", Category: "rbac", Resource: "role", Action: "manage"},
	{Name: "permission:view", DisplayName: "View permissions", Category: "rbac", Resource: "permission", Action: "view"},
	{Name: "permission:manage", DisplayName: "Manage permissions", Category: "rbac", Resource: "permission", Action: "manage"},
	{Name: "assignment:view", DisplayName: "View role assignments", Category: "rbac", Resource: "assignment", Action: "view"},
	{Name: "assignment:manage", DisplayName: "Assign and revoke roles", Category: "rbac", Resource: "assignment", Action: "manage"},
	{Name: "audit:view", DisplayName: "View audit logs", Category: "audit", Resource: "audit", Action: "view"},
	{Name: "*:*", DisplayName: "Superuser", Category: "admin", Resource: "*", Action: "*"},
}

// SeedData installs the default permission catalog and roles idempotently.
func SeedData(db *gorm.DB) error {
	for _, perm := range defaultPermissions {
		perm.IsActive = true
		if err := db.Where(models.Permission{Name: perm.Name}).
			Attrs(perm).
			FirstOrCreate(&models.Permission{}).Error; err != nil {
			return err
		}
	}

	roles := []struct {
		role  models.Role
		perms []string
	}{
		{
			role: models.Role{
				Name:        "administrator",
				DisplayName: "Administrator",
				Description: "Full system access",
				Priority:    100,
				IsActive:    true,
			},
			perms: []string{"*:*"},
		},
		{
			role: models.Role{
				Name:        "operator",
				DisplayName: "Operator",
				Description: "Manage users and role assignments",
				Priority:    50,
				IsActive:    true,
			},
			perms: []string{"user:view", "user:manage", "role:view", "assignment:view", "assignment:manage"},
		},
		{
			role: models.Role{
				Name:        "viewer",
				DisplayName: "Viewer",
				Description: "Read-only access",
				Priority:    10,
				IsActive:    true,
			},
			perms: []string{"user:view", "role:view", "permission:view", "assignment:view"},
		},
	}

	for _, seed := range roles {
		var existing models.Role
		err := db.Where("name = ?", seed.role.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		var perms []models.Permission
		if err := db.Where("name IN ?", seed.perms).Find(&perms).Error; err != nil {
			return err
		}

		role := seed.role
		role.Permissions = perms
		if err := db.Create(&role).Error; err != nil {
			return err
		}
	}

	return nil
}
