package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/charlesng35/accessd/pkg/errors"
)

func TestPermissionServiceCreateAndGet(t *testing.T) {
	db := openServicesTestDB(t)
	svc, err := NewPermissionService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	created, err := svc.CreatePermission(ctx, CreatePermissionInput{
		Name:        "server:restart",
		DisplayName: "Restart servers",
		Description: "Allows restarting managed servers",
		Category:    "server",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "server", created.Resource)
	require.Equal(t, "restart", created.Action)
	require.True(t, created.IsActive)

	got, err := svc.GetPermission(ctx, "server:restart")
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, created.Name, got.Name)
	require.Equal(t, created.DisplayName, got.DisplayName)
	require.Equal(t, created.Description, got.Description)
	require.Equal(t, created.Category, got.Category)
}

func TestPermissionServiceCreateValidatesName(t *testing.T) {
	db := openServicesTestDB(t)
	svc, err := NewPermissionService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	for _, name := range []string{"", "server", "server:", ":restart", "a:b:c"} {
		_, err := svc.CreatePermission(ctx, CreatePermissionInput{Name: name})

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr, "input %q", name)
		require.Equal(t, apperrors.ErrValidation.Code, appErr.Code)
	}
}

func TestPermissionServiceCreateRejectsMismatchedSegments(t *testing.T) {
	db := openServicesTestDB(t)
	svc, err := NewPermissionService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = svc.CreatePermission(ctx, CreatePermissionInput{
		Name:     "server:restart",
		Resource: "user",
	})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperrors.ErrValidation.Code, appErr.Code)

	_, err = svc.CreatePermission(ctx, CreatePermissionInput{
		Name:   "server:restart",
		Action: "stop",
	})
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperrors.ErrValidation.Code, appErr.Code)

	// Matching segments are accepted.
	_, err = svc.CreatePermission(ctx, CreatePermissionInput{
		Name:     "server:restart",
		Resource: "server",
		Action:   "restart",
	})
	require.NoError(t, err)
}

func TestPermissionServiceDuplicateName(t *testing.T) {
	db := openServicesTestDB(t)
	svc, err := NewPermissionService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = svc.CreatePermission(ctx, CreatePermissionInput{Name: "server:view"})
	require.NoError(t, err)

	_, err = svc.CreatePermission(ctx, CreatePermissionInput{Name: "server:view"})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperrors.ErrDuplicate.Code, appErr.Code)
}

func TestPermissionServiceGetUnknown(t *testing.T) {
	db := openServicesTestDB(t)
	svc, err := NewPermissionService(db, nil)
	require.NoError(t, err)

	_, err = svc.GetPermission(context.Background(), "missing:permission")
	require.True(t, errors.Is(err, ErrPermissionNotFound))
}

func TestPermissionServiceListByCategory(t *testing.T) {
	db := openServicesTestDB(t)
	svc, err := NewPermissionService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	for _, input := range []CreatePermissionInput{
		{Name: "server:view", Category: "server"},
		{Name: "server:restart", Category: "server"},
		{Name: "audit:view", Category: "audit"},
	} {
		_, err := svc.CreatePermission(ctx, input)
		require.NoError(t, err)
	}

	all, err := svc.ListPermissions(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Ordered by name.
	require.Equal(t, "audit:view", all[0].Name)
	require.Equal(t, "server:restart", all[1].Name)
	require.Equal(t, "server:view", all[2].Name)

	servers, err := svc.ListPermissions(ctx, "server")
	require.NoError(t, err)
	require.Len(t, servers, 2)
}

func TestPermissionServiceDeactivate(t *testing.T) {
	db := openServicesTestDB(t)
	svc, err := NewPermissionService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = svc.CreatePermission(ctx, CreatePermissionInput{Name: "server:view"})
	require.NoError(t, err)

	require.NoError(t, svc.DeactivatePermission(ctx, "server:view", ""))

	got, err := svc.GetPermission(ctx, "server:view")
	require.NoError(t, err)
	require.False(t, got.IsActive)

	require.Error(t, svc.DeactivatePermission(ctx, "missing:permission", ""))
}
