package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lectoria/lectoria/internal/platform/httpx"
)

// PermissionsHandler exposes the permission catalog.
type PermissionsHandler struct {
	logger  *slog.Logger
	service *Service
}

// NewPermissionsHandler builds a PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, service *Service) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, service: service}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(RequirePermissions(PermGetRoles))
		r.Get("/", h.listPermissions)
	})
}

type permissionResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	resp := make([]permissionResponse, 0, len(perms))
	for _, p := range perms {
		resp = append(resp, permissionResponse{Name: p.Name, Description: p.Description})
	}
	httpx.JSON(w, http.StatusOK, resp)
}
