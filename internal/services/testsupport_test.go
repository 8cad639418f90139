package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/accessd/internal/database/testutil"
	"github.com/charlesng35/accessd/internal/models"
)

func openServicesTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
}

func createTestUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createTestPermission(t *testing.T, db *gorm.DB, name string) models.Permission {
	t.Helper()
	perm := models.Permission{Name: name, IsActive: true}
	require.NoError(t, db.Where(models.Permission{Name: name}).
		Attrs(perm).FirstOrCreate(&perm).Error)
	return perm
}

func createTestRole(t *testing.T, db *gorm.DB, name string, priority int, permNames ...string) models.Role {
	t.Helper()

	perms := make([]models.Permission, 0, len(permNames))
	for _, permName := range permNames {
		perms = append(perms, createTestPermission(t, db, permName))
	}

	role := models.Role{
		Name:        name,
		Priority:    priority,
		IsActive:    true,
		Permissions: perms,
	}
	require.NoError(t, db.Create(&role).Error)
	return role
}
