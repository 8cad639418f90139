package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/charlesng35/accessd/pkg/errors"
)

func TestUserServiceCreateHashesPassword(t *testing.T) {
	db := openServicesTestDB(t)
	svc, err := NewUserService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	user, err := svc.CreateUser(ctx, CreateUserInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.NotEqual(t, "correct horse battery", user.Password)
	require.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(user.Password), []byte("correct horse battery")))

	got, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)
}

func TestUserServiceCreateValidation(t *testing.T) {
	db := openServicesTestDB(t)
	svc, err := NewUserService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	cases := []CreateUserInput{
		{Username: "", Email: "a@example.com", Password: "longenough"},
		{Username: "alice", Email: "", Password: "longenough"},
		{Username: "alice", Email: "a@example.com", Password: "short"},
	}
	for _, input := range cases {
		_, err := svc.CreateUser(ctx, input)
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		require.Equal(t, apperrors.ErrValidation.Code, appErr.Code)
	}
}

func TestUserServiceDuplicateUsername(t *testing.T) {
	db := openServicesTestDB(t)
	svc, err := NewUserService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = svc.CreateUser(ctx, CreateUserInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "longenough",
	})
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, CreateUserInput{
		Username: "alice",
		Email:    "other@example.com",
		Password: "longenough",
	})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperrors.ErrDuplicate.Code, appErr.Code)
}

func TestUserServiceGetUnknown(t *testing.T) {
	db := openServicesTestDB(t)
	svc, err := NewUserService(db, nil)
	require.NoError(t, err)

	_, err = svc.GetUser(context.Background(), "no-such-user")
	require.True(t, errors.Is(err, ErrUserNotFound))
}

func TestUserServiceListOrderedByUsername(t *testing.T) {
	db := openServicesTestDB(t)
	svc, err := NewUserService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	for _, username := range []string{"charlie", "alice", "bob"} {
		_, err := svc.CreateUser(ctx, CreateUserInput{
			Username: username,
			Email:    username + "@example.com",
			Password: "longenough",
		})
		require.NoError(t, err)
	}

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	require.Equal(t, "alice", users[0].Username)
	require.Equal(t, "bob", users[1].Username)
	require.Equal(t, "charlie", users[2].Username)
}
