package shared

import "context"

// Identity describes the authenticated actor for the lifetime of one request.
// Permissions is the flattened set of permission names granted by the actor's
// role; AccessLevel follows the catalog ordering where a lower number means a
// higher privilege tier.
type Identity struct {
	UserID      int64
	Email       string
	RoleName    string
	AccessLevel int
	IsSuperuser bool
	Permissions []string
}

type identityContextKey struct{}

// ContextWithIdentity stores the resolved identity in context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context. A nil result means
// the request is anonymous.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}

// PermissionsFromContext returns the permission names of the current identity.
// Anonymous requests yield nil, which every permission gate treats as the
// empty set.
func PermissionsFromContext(ctx context.Context) []string {
	id := IdentityFromContext(ctx)
	if id == nil {
		return nil
	}
	return id.Permissions
}
