package rbac

import (
	"fmt"
	"strings"

	"github.com/lectoria/lectoria/internal/shared"
)

// PermissionSet is a flat set of permission names with canonical casing.
type PermissionSet map[string]struct{}

// NewPermissionSet builds a set from permission names. Blank entries are
// dropped; names are case-insensitive.
func NewPermissionSet(names []string) PermissionSet {
	set := make(PermissionSet, len(names))
	for _, n := range names {
		n = canonical(n)
		if n == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return set
}

// Has reports whether the set contains the given permission.
func (s PermissionSet) Has(name string) bool {
	_, ok := s[canonical(name)]
	return ok
}

// Names returns the set contents as a slice in unspecified order.
func (s PermissionSet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	return names
}

// RequireAll checks that every required permission is present in granted.
// The check is conjunctive: one missing permission denies the whole request.
// An empty required list always passes, including for anonymous callers.
func RequireAll(granted PermissionSet, required ...string) error {
	for _, name := range required {
		name = canonical(name)
		if name == "" {
			continue
		}
		if _, ok := granted[name]; !ok {
			return shared.ErrPermissionDenied
		}
	}
	return nil
}

// RequireLowerLevel checks that the actor sits in a strictly higher privilege
// tier than the target, i.e. actor.AccessLevel < target.AccessLevel. Peers and
// superiors are denied with the same error as a missing permission.
func RequireLowerLevel(actor, target Role) error {
	if actor.AccessLevel < target.AccessLevel {
		return nil
	}
	return shared.ErrPermissionDenied
}

// CreationPermission returns the permission required to provision a principal
// with the given role. A role outside the allow-list is a validation error and
// must leave no partial state behind.
func CreationPermission(roleName string) (string, error) {
	perm, ok := creationPermissions[canonical(roleName)]
	if !ok {
		return "", fmt.Errorf("%w: incorrect role type %q", shared.ErrValidation, roleName)
	}
	return perm, nil
}

func canonical(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
