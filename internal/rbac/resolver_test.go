package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/accessd/internal/database/testutil"
	"github.com/charlesng35/accessd/internal/models"
)

func seedResolverUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedResolverRole(t *testing.T, db *gorm.DB, name string, priority int, permNames ...string) models.Role {
	t.Helper()

	perms := make([]models.Permission, 0, len(permNames))
	for _, permName := range permNames {
		perm := models.Permission{Name: permName, IsActive: true}
		require.NoError(t, db.Where(models.Permission{Name: permName}).
			Attrs(perm).FirstOrCreate(&perm).Error)
		perms = append(perms, perm)
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

func seedResolverAssignment(t *testing.T, db *gorm.DB, userID, roleID string) models.RoleAssignment {
	t.Helper()
	key := models.PairKey(userID, roleID)
	assignment := models.RoleAssignment{
		UserID:    userID,
		RoleID:    roleID,
		IsActive:  true,
		ActiveKey: &key,
	}
	require.NoError(t, db.Create(&assignment).Error)
	return assignment
}

func TestResolverAssignmentGrantsPermission(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	resolver, err := NewResolver(db)
	require.NoError(t, err)

	ctx := context.Background()
	user := seedResolverUser(t, db, "alice")
	role := seedResolverRole(t, db, "ops", 50, "test:manage")
	seedResolverAssignment(t, db, user.ID, role.ID)

	ok, err := resolver.HasPermission(ctx, user.ID, "test:manage")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = resolver.HasPermission(ctx, user.ID, "test:other")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = resolver.HasRole(ctx, user.ID, "ops")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = resolver.HasRole(ctx, user.ID, "admins")
	require.NoError(t, err)
	require.False(t, ok)

	perms, err := resolver.EffectivePermissions(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"test:manage"}, perms)
}

func TestResolverActionWildcard(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	resolver, err := NewResolver(db)
	require.NoError(t, err)

	ctx := context.Background()
	user := seedResolverUser(t, db, "bob")
	role := seedResolverRole(t, db, "admins", 90, "admin:*")
	seedResolverAssignment(t, db, user.ID, role.ID)

	for _, permission := range []string{"admin:view", "admin:create", "admin:delete"} {
		ok, err := resolver.HasPermission(ctx, user.ID, permission)
		require.NoError(t, err)
		require.True(t, ok, "expected %q to be granted", permission)
	}

	ok, err := resolver.HasPermission(ctx, user.ID, "user:view")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestResolverFullWildcard(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	resolver, err := NewResolver(db)
	require.NoError(t, err)

	ctx := context.Background()
	user := seedResolverUser(t, db, "root")
	role := seedResolverRole(t, db, "superuser", 100, "*:*")
	seedResolverAssignment(t, db, user.ID, role.ID)

	for _, permission := range []string{"admin:delete", "user:view", "made:up"} {
		ok, err := resolver.HasPermission(ctx, user.ID, permission)
		require.NoError(t, err)
		require.True(t, ok, "expected %q to be granted", permission)
	}
}

func TestResolverRevokedAssignmentStopsGranting(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	resolver, err := NewResolver(db)
	require.NoError(t, err)

	ctx := context.Background()
	user := seedResolverUser(t, db, "carol")
	role := seedResolverRole(t, db, "ops", 50, "test:manage")
	assignment := seedResolverAssignment(t, db, user.ID, role.ID)

	require.NoError(t, db.Model(&assignment).
		Updates(map[string]any{"is_active": false, "active_key": nil}).Error)

	ok, err := resolver.HasPermission(ctx, user.ID, "test:manage")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = resolver.HasRole(ctx, user.ID, "ops")
	require.NoError(t, err)
	require.False(t, ok)

	perms, err := resolver.EffectivePermissions(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, perms)
}

func TestResolverInactiveRoleStopsGranting(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	resolver, err := NewResolver(db)
	require.NoError(t, err)

	ctx := context.Background()
	user := seedResolverUser(t, db, "dave")
	role := seedResolverRole(t, db, "ops", 50, "test:manage")
	seedResolverAssignment(t, db, user.ID, role.ID)

	require.NoError(t, db.Model(&models.Role{}).
		Where("id = ?", role.ID).
		Update("is_active", false).Error)

	ok, err := resolver.HasPermission(ctx, user.ID, "test:manage")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestResolverInactivePermissionStopsGranting(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	resolver, err := NewResolver(db)
	require.NoError(t, err)

	ctx := context.Background()
	user := seedResolverUser(t, db, "erin")
	role := seedResolverRole(t, db, "ops", 50, "test:manage")
	seedResolverAssignment(t, db, user.ID, role.ID)

	require.NoError(t, db.Model(&models.Permission{}).
		Where("name = ?", "test:manage").
		Update("is_active", false).Error)

	ok, err := resolver.HasPermission(ctx, user.ID, "test:manage")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestResolverUnknownUserHoldsNothing(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	resolver, err := NewResolver(db)
	require.NoError(t, err)

	ctx := context.Background()

	ok, err := resolver.HasPermission(ctx, "no-such-user", "user:view")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = resolver.HasRole(ctx, "no-such-user", "ops")
	require.NoError(t, err)
	require.False(t, ok)

	perms, err := resolver.EffectivePermissions(ctx, "no-such-user")
	require.NoError(t, err)
	require.Empty(t, perms)
}

func TestResolverRejectsMalformedRequests(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	resolver, err := NewResolver(db)
	require.NoError(t, err)

	ctx := context.Background()

	_, err = resolver.HasPermission(ctx, "some-user", "not-a-permission")
	require.Error(t, err)

	_, err = resolver.HasPermission(ctx, "", "user:view")
	require.Error(t, err)

	_, err = resolver.HasRole(ctx, "some-user", "")
	require.Error(t, err)
}

func TestResolverUnionAcrossRoles(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	resolver, err := NewResolver(db)
	require.NoError(t, err)

	ctx := context.Background()
	user := seedResolverUser(t, db, "frank")
	ops := seedResolverRole(t, db, "ops", 50, "server:view", "server:restart")
	audit := seedResolverRole(t, db, "auditors", 10, "audit:view", "server:view")
	seedResolverAssignment(t, db, user.ID, ops.ID)
	seedResolverAssignment(t, db, user.ID, audit.ID)

	perms, err := resolver.EffectivePermissions(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"audit:view", "server:restart", "server:view"}, perms)
}
