package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/accessd/internal/database/testutil"
	"github.com/charlesng35/accessd/internal/models"
	"github.com/charlesng35/accessd/internal/rbac"
)

func seedUserWithPermission(t *testing.T, db *gorm.DB, permName string) models.User {
	t.Helper()

	user := models.User{Username: "alice", Email: "alice@example.com", Password: "hashed"}
	require.NoError(t, db.Create(&user).Error)

	perm := models.Permission{Name: permName, IsActive: true}
	require.NoError(t, db.Create(&perm).Error)

	role := models.Role{Name: "ops", IsActive: true, Permissions: []models.Permission{perm}}
	require.NoError(t, db.Create(&role).Error)

	key := models.PairKey(user.ID, role.ID)
	require.NoError(t, db.Create(&models.RoleAssignment{
		UserID:    user.ID,
		RoleID:    role.ID,
		IsActive:  true,
		ActiveKey: &key,
	}).Error)

	return user
}

func newPermissionTestRouter(t *testing.T, db *gorm.DB, userID, required string) *gin.Engine {
	t.Helper()

	resolver, err := rbac.NewResolver(db)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set(CtxUserIDKey, userID)
		}
		c.Next()
	})
	r.GET("/probe", RequirePermission(resolver, nil, required), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequirePermissionAllows(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	user := seedUserWithPermission(t, db, "server:view")

	r := newPermissionTestRouter(t, db, user.ID, "server:view")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequirePermissionDenies(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	user := seedUserWithPermission(t, db, "server:view")

	r := newPermissionTestRouter(t, db, user.ID, "server:delete")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequirePermissionWildcardGrant(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	user := seedUserWithPermission(t, db, "server:*")

	r := newPermissionTestRouter(t, db, user.ID, "server:delete")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequirePermissionWithoutIdentity(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	r := newPermissionTestRouter(t, db, "", "server:view")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
