package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/lectoria/lectoria/internal/auth"
	"github.com/lectoria/lectoria/internal/crud"
	"github.com/lectoria/lectoria/internal/observability"
	"github.com/lectoria/lectoria/internal/rbac"
	"github.com/lectoria/lectoria/internal/roles"
	"github.com/lectoria/lectoria/internal/textbooks"
	"github.com/lectoria/lectoria/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Authenticator      *auth.Authenticator
	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	RolesHandler       *roles.Handler
	PermissionsHandler *rbac.PermissionsHandler
	TextbookEndpoints  *crud.Endpoints[textbooks.Textbook, textbooks.CreateInput, textbooks.Patch, textbooks.Response]
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with Lectoria defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	// Identity is resolved optionally so anonymous callers reach the
	// permission checks with the empty grant set.
	r.Group(func(r chi.Router) {
		r.Use(params.Authenticator.Optional)

		params.UsersHandler.MountRoutes(r)
		if params.RolesHandler != nil {
			r.Route("/roles", params.RolesHandler.MountRoutes)
		}
		if params.PermissionsHandler != nil {
			r.Route("/permissions", params.PermissionsHandler.MountRoutes)
		}
		if params.TextbookEndpoints != nil {
			params.TextbookEndpoints.MountRoutes(r)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
