// Package roles exposes the role catalog over HTTP. Roles are seeded from the
// static catalog; there is no user-facing creation or mutation flow.
package roles

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lectoria/lectoria/internal/platform/httpx"
	"github.com/lectoria/lectoria/internal/rbac"
)

// Catalog lists the seeded roles.
type Catalog interface {
	ListRoles(ctx context.Context) ([]rbac.Role, error)
}

// Handler serves role listing endpoints.
type Handler struct {
	logger  *slog.Logger
	catalog Catalog
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, catalog Catalog) *Handler {
	return &Handler{logger: logger, catalog: catalog}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(rbac.RequirePermissions(rbac.PermGetRoles))
		r.Get("/", h.listRoles)
	})
}

type rolesResponse struct {
	Roles []string `json:"roles"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.catalog.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.Name)
	}
	httpx.JSON(w, http.StatusOK, rolesResponse{Roles: names})
}
