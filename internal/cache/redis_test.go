package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	store, err := NewRedisStore(RedisConfig{Address: srv.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store, srv
}

func TestNewRedisStoreRequiresAddress(t *testing.T) {
	_, err := NewRedisStore(RedisConfig{})
	require.Error(t, err)
}

func TestNewRedisStoreFailsFastWhenUnreachable(t *testing.T) {
	_, err := NewRedisStore(RedisConfig{
		Address: "127.0.0.1:1",
		Timeout: 100 * time.Millisecond,
	})
	require.Error(t, err)
}

func TestRedisStoreSetGetDelete(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "greeting", []byte("hello"), time.Minute))

	val, ok, err := store.Get(ctx, "greeting")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("hello"), val)

	require.NoError(t, store.Delete(ctx, "greeting"))
	_, ok, err = store.Get(ctx, "greeting")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisStoreGetMissing(t *testing.T) {
	store, _ := newTestRedisStore(t)

	_, ok, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisStoreExpiry(t *testing.T) {
	store, srv := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "ephemeral", []byte("x"), time.Second))
	srv.FastForward(2 * time.Second)

	_, ok, err := store.Get(ctx, "ephemeral")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisStoreIncrementWithTTL(t *testing.T) {
	store, srv := newTestRedisStore(t)
	ctx := context.Background()

	count, remaining, err := store.IncrementWithTTL(ctx, "ratelimit:test", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
	require.Greater(t, remaining, time.Duration(0))

	count, _, err = store.IncrementWithTTL(ctx, "ratelimit:test", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	// The window expires and the counter starts over.
	srv.FastForward(2 * time.Minute)
	count, _, err = store.IncrementWithTTL(ctx, "ratelimit:test", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestRedisStoreDeletePrefix(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "perm:u1:a:b", []byte{1}, time.Minute))
	require.NoError(t, store.Set(ctx, "perm:u1:c:d", []byte{0}, time.Minute))
	require.NoError(t, store.Set(ctx, "perm:u2:a:b", []byte{1}, time.Minute))

	require.NoError(t, store.DeletePrefix(ctx, "perm:u1:"))

	_, ok, err := store.Get(ctx, "perm:u1:a:b")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = store.Get(ctx, "perm:u2:a:b")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRedisStorePing(t *testing.T) {
	store, srv := newTestRedisStore(t)
	require.NoError(t, store.Ping(context.Background()))

	srv.Close()
	require.Error(t, store.Ping(context.Background()))
}
