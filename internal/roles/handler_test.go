package roles_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectoria/lectoria/internal/rbac"
	"github.com/lectoria/lectoria/internal/roles"
	"github.com/lectoria/lectoria/internal/shared"
)

type stubCatalog struct{}

func (stubCatalog) ListRoles(ctx context.Context) ([]rbac.Role, error) {
	return []rbac.Role{
		{Name: rbac.RoleSuperuser, AccessLevel: 1},
		{Name: rbac.RoleTeacher, AccessLevel: 2},
		{Name: rbac.RoleUser, AccessLevel: 3},
	}, nil
}

func newRouter() http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := roles.NewHandler(logger, stubCatalog{})
	router := chi.NewRouter()
	router.Route("/roles", handler.MountRoutes)
	return router
}

func TestListRolesRequiresPermission(t *testing.T) {
	router := newRouter()

	// Anonymous callers hold the empty set.
	req := httptest.NewRequest(http.MethodGet, "/roles/", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	assert.Equal(t, http.StatusMethodNotAllowed, res.Code)
	assert.JSONEq(t, `{"msg":"Method not allowed!"}`, res.Body.String())
}

func TestListRoles(t *testing.T) {
	router := newRouter()

	req := httptest.NewRequest(http.MethodGet, "/roles/", nil)
	identity := &shared.Identity{UserID: 1, RoleName: rbac.RoleSuperuser, AccessLevel: 1, Permissions: []string{rbac.PermGetRoles}}
	req = req.WithContext(shared.ContextWithIdentity(req.Context(), identity))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	var got struct {
		Roles []string `json:"roles"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &got))
	assert.Equal(t, []string{rbac.RoleSuperuser, rbac.RoleTeacher, rbac.RoleUser}, got.Roles)
}
