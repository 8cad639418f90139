package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotifierDeliversInSubscriptionOrder(t *testing.T) {
	notifier := NewNotifier()

	var order []string
	notifier.Subscribe(func(ctx context.Context, m Mutation) {
		order = append(order, "first")
	})
	notifier.Subscribe(func(ctx context.Context, m Mutation) {
		order = append(order, "second")
	})

	notifier.Publish(context.Background(), Mutation{
		Kind:    MutationAssign,
		RoleID:  "role-1",
		UserIDs: []string{"user-1"},
	})

	require.Equal(t, []string{"first", "second"}, order)
}

func TestNotifierCarriesMutationDetails(t *testing.T) {
	notifier := NewNotifier()

	var got Mutation
	notifier.Subscribe(func(ctx context.Context, m Mutation) {
		got = m
	})

	notifier.Publish(context.Background(), Mutation{
		Kind:    MutationRolePermissions,
		RoleID:  "role-7",
		UserIDs: []string{"u1", "u2"},
	})

	require.Equal(t, MutationRolePermissions, got.Kind)
	require.Equal(t, "role-7", got.RoleID)
	require.Equal(t, []string{"u1", "u2"}, got.UserIDs)
}

func TestNotifierNilReceiverAndNilSubscriber(t *testing.T) {
	var notifier *Notifier
	require.NotPanics(t, func() {
		notifier.Publish(context.Background(), Mutation{Kind: MutationRevoke})
	})

	live := NewNotifier()
	live.Subscribe(nil)
	require.NotPanics(t, func() {
		live.Publish(context.Background(), Mutation{Kind: MutationAssign})
	})
}

func TestNotifierPublishWithoutSubscribers(t *testing.T) {
	notifier := NewNotifier()
	require.NotPanics(t, func() {
		notifier.Publish(nil, Mutation{Kind: MutationAssign})
	})
}
