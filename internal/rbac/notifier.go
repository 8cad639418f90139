package rbac

import (
	"context"
	"sync"
)

// MutationKind names the catalog/ledger mutations collaborators care about.
type MutationKind string

const (
	MutationAssign          MutationKind = "assign"
	MutationRevoke          MutationKind = "revoke"
	MutationRolePermissions MutationKind = "role_permissions"
)

// Mutation describes one completed mutation. UserIDs lists every principal
// whose effective permission set may have changed.
type Mutation struct {
	Kind    MutationKind
	RoleID  string
	UserIDs []string
}

// SubscriberFunc receives mutation notifications.
type SubscriberFunc func(ctx context.Context, m Mutation)

// Notifier delivers a synchronous "mutation completed" signal to registered
// subscribers, in subscription order, after each successful assign, revoke,
// or role-permission update. The engine itself holds no cache; external
// caches subscribe here to invalidate.
type Notifier struct {
	mu   sync.RWMutex
	subs []SubscriberFunc
}

// NewNotifier constructs an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers fn for future mutations. Subscribers must tolerate
// being called from request goroutines and return quickly.
func (n *Notifier) Subscribe(fn SubscriberFunc) {
	if fn == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, fn)
}

// Publish synchronously delivers m to every subscriber. A nil notifier is a
// valid no-op so services can run without any cache wired.
func (n *Notifier) Publish(ctx context.Context, m Mutation) {
	if n == nil {
		return
	}

	n.mu.RLock()
	subs := make([]SubscriberFunc, len(n.subs))
	copy(subs, n.subs)
	n.mu.RUnlock()

	ctx = ensureContext(ctx)
	for _, fn := range subs {
		fn(ctx, m)
	}
}
