package rbac

import (
	"net/http"

	"github.com/lectoria/lectoria/internal/platform/httpx"
	"github.com/lectoria/lectoria/internal/shared"
)

// RequirePermissions gates a route on the conjunction of the given
// permissions. The caller's permission set comes from the identity resolved
// earlier in the chain; anonymous callers carry the empty set, so a route
// with no required permissions stays open to them.
func RequirePermissions(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			granted := NewPermissionSet(shared.PermissionsFromContext(r.Context()))
			if err := RequireAll(granted, perms...); err != nil {
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
