package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lectoria/lectoria/internal/platform/httpx"
	"github.com/lectoria/lectoria/internal/rbac"
	"github.com/lectoria/lectoria/internal/shared"
	"github.com/lectoria/lectoria/internal/token"
)

// AccessTokenCookie is the fallback transport when no bearer header is set.
const AccessTokenCookie = "access_token"

// Authenticator resolves a request credential into an identity with its role
// and flattened permission set.
type Authenticator struct {
	codec    *token.Codec
	source   UserSource
	resolver *rbac.Resolver
	logger   *slog.Logger
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(codec *token.Codec, source UserSource, resolver *rbac.Resolver, logger *slog.Logger) *Authenticator {
	return &Authenticator{codec: codec, source: source, resolver: resolver, logger: logger}
}

// Optional resolves the identity when a valid token is present and continues
// anonymously otherwise. A well-formed token whose account no longer exists
// or is blocked is still a hard failure: that is an application-level
// not-found, not an absent credential.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		subject, err := a.codec.ParseAccess(raw)
		if err != nil {
			// Malformed, expired or badly signed: anonymous.
			next.ServeHTTP(w, r)
			return
		}
		identity, err := a.load(r.Context(), subject.ID)
		if err != nil {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), identity)))
	})
}

// Required rejects requests that do not resolve to an active identity.
func (a *Authenticator) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r)
		if raw == "" {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		subject, err := a.codec.ParseAccess(raw)
		if err != nil {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		identity, err := a.load(r.Context(), subject.ID)
		if err != nil {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), identity)))
	})
}

// load fetches the user with its single role eagerly and flattens the role's
// grants into the identity's permission set.
func (a *Authenticator) load(ctx context.Context, userID int64) (*shared.Identity, error) {
	user, err := a.source.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrUnauthenticated
	}
	perms, err := a.resolver.PermissionsForRole(ctx, user.Role.ID)
	if err != nil {
		if a.logger != nil {
			a.logger.Error("resolve permissions", slog.Int64("user_id", userID), slog.Any("error", err))
		}
		return nil, err
	}
	return &shared.Identity{
		UserID:      user.ID,
		Email:       user.Email,
		RoleName:    user.Role.Name,
		AccessLevel: user.Role.AccessLevel,
		IsSuperuser: user.IsSuperuser,
		Permissions: perms.Names(),
	}, nil
}

func tokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}
