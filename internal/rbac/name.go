package rbac

import (
	"fmt"
	"strings"
)

// Wildcard is the segment value that matches any resource or action.
const Wildcard = "*"

// MatchKind classifies how a granted permission name matches requests.
type MatchKind int

const (
	// MatchExact grants only the identical name. Names with embedded
	// asterisks ("adm*n:view") are ordinary literals and fall in here.
	MatchExact MatchKind = iota
	// MatchActionWildcard grants every action on one resource ("admin:*").
	MatchActionWildcard
	// MatchFullWildcard grants everything ("*:*").
	MatchFullWildcard
)

// Name is a parsed permission name of the form "resource:action".
type Name struct {
	Resource string
	Action   string
}

// ParseName splits a permission name on ":" into exactly two non-empty,
// case-sensitive segments. No normalisation beyond surrounding whitespace.
func ParseName(raw string) (Name, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Name{}, fmt.Errorf("rbac: permission name is required")
	}

	parts := strings.Split(trimmed, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Name{}, fmt.Errorf("rbac: permission name %q must be of the form resource:action", raw)
	}

	return Name{Resource: parts[0], Action: parts[1]}, nil
}

// Kind reports the match kind of the name when used as a grant.
func (n Name) Kind() MatchKind {
	switch {
	case n.Resource == Wildcard && n.Action == Wildcard:
		return MatchFullWildcard
	case n.Action == Wildcard:
		return MatchActionWildcard
	default:
		return MatchExact
	}
}

// Grants reports whether this name, treated as a granted pattern, covers the
// requested name.
func (n Name) Grants(requested Name) bool {
	switch n.Kind() {
	case MatchFullWildcard:
		return true
	case MatchActionWildcard:
		return n.Resource == requested.Resource
	default:
		return n == requested
	}
}

func (n Name) String() string {
	return n.Resource + ":" + n.Action
}
