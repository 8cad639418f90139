package cache

import (
	"context"
	"errors"
	"time"

	"github.com/charlesng35/accessd/internal/rbac"
	"github.com/charlesng35/accessd/pkg/metrics"
)

const permissionKeyPrefix = "perm:"

// ResolveFunc computes a permission decision when the cache misses.
type ResolveFunc func(ctx context.Context) (bool, error)

// PermissionCache is a read-through cache of permission-check results keyed
// by (user id, permission name). The RBAC engine never consults it; the HTTP
// layer does, and invalidation happens via the engine's mutation signal —
// wire Invalidate as a Notifier subscriber at bootstrap.
type PermissionCache struct {
	store Store
	ttl   time.Duration
}

// NewPermissionCache builds a permission cache over the supplied store.
func NewPermissionCache(store Store, ttl time.Duration) (*PermissionCache, error) {
	if store == nil {
		return nil, errors.New("cache: permission cache requires a store")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &PermissionCache{store: store, ttl: ttl}, nil
}

// Check returns the cached decision for (userID, permission), resolving and
// storing it on a miss. Cache failures degrade to resolving directly.
func (c *PermissionCache) Check(ctx context.Context, userID, permission string, resolve ResolveFunc) (bool, error) {
	if c == nil {
		return resolve(ctx)
	}

	key := permissionKey(userID, permission)
	if raw, ok, err := c.store.Get(ctx, key); err == nil && ok && len(raw) == 1 {
		metrics.PermissionCacheLookups.WithLabelValues("hit").Inc()
		return raw[0] == 1, nil
	}
	metrics.PermissionCacheLookups.WithLabelValues("miss").Inc()

	allowed, err := resolve(ctx)
	if err != nil {
		return false, err
	}

	val := []byte{0}
	if allowed {
		val[0] = 1
	}
	_ = c.store.Set(ctx, key, val, c.ttl)

	return allowed, nil
}

// InvalidateUser drops every cached decision for the user.
func (c *PermissionCache) InvalidateUser(ctx context.Context, userID string) error {
	if c == nil {
		return nil
	}
	return c.store.DeletePrefix(ctx, permissionKeyPrefix+userID+":")
}

// Invalidate is a rbac.SubscriberFunc dropping cached decisions for every
// user a mutation names.
func (c *PermissionCache) Invalidate(ctx context.Context, m rbac.Mutation) {
	if c == nil {
		return
	}
	for _, userID := range m.UserIDs {
		_ = c.InvalidateUser(ctx, userID)
	}
}

func permissionKey(userID, permission string) string {
	return permissionKeyPrefix + userID + ":" + permission
}
