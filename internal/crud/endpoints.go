// Package crud stamps out permission-gated CRUD endpoints for arbitrary
// resource types. One generic implementation carries the check-then-dispatch
// flow so per-resource handlers never duplicate it.
package crud

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lectoria/lectoria/internal/platform/httpx"
	"github.com/lectoria/lectoria/internal/rbac"
	"github.com/lectoria/lectoria/internal/shared"
)

// PermissionMap assigns the required permissions to each of the five
// operations. An empty slice leaves the operation open, including to
// anonymous callers; all listed permissions must be held together.
type PermissionMap struct {
	Single []string
	List   []string
	Create []string
	Update []string
	Delete []string
}

// DefaultPermissionMap gates mutations behind the generic object permissions
// and leaves reads open.
func DefaultPermissionMap() PermissionMap {
	return PermissionMap{
		Create: []string{rbac.PermCreateObject},
		Update: []string{rbac.PermEditObject},
		Delete: []string{rbac.PermBlockObject},
	}
}

// Store abstracts persistence for one resource type. Update applies a partial
// merge: fields absent from the patch keep their stored values. Delete may
// soft-delete when the resource supports it and reports the removed row.
type Store[T any, CreateT any, UpdateT any] interface {
	Get(ctx context.Context, id int64) (*T, error)
	List(ctx context.Context, limit, offset int) ([]T, int, error)
	Create(ctx context.Context, in CreateT) (*T, error)
	Update(ctx context.Context, id int64, patch UpdateT) (*T, error)
	Delete(ctx context.Context, id int64) (*T, error)
}

// Endpoints exposes the five CRUD handlers for one resource. The type
// parameters fix the entity shape, its create and update payloads, and the
// response projection.
type Endpoints[T any, CreateT any, UpdateT any, RespT any] struct {
	name    string
	store   Store[T, CreateT, UpdateT]
	project func(*T) RespT
	perms   PermissionMap
	logger  *slog.Logger
}

// NewEndpoints builds the endpoint set for a resource. name becomes the URL
// segment: GET /{name}, GET /{name}_list, POST /{name}, PUT /{name},
// DELETE /{name}.
func NewEndpoints[T any, CreateT any, UpdateT any, RespT any](
	name string,
	store Store[T, CreateT, UpdateT],
	project func(*T) RespT,
	perms PermissionMap,
	logger *slog.Logger,
) *Endpoints[T, CreateT, UpdateT, RespT] {
	return &Endpoints[T, CreateT, UpdateT, RespT]{
		name:    name,
		store:   store,
		project: project,
		perms:   perms,
		logger:  logger,
	}
}

// MountRoutes registers the resource routes.
func (e *Endpoints[T, CreateT, UpdateT, RespT]) MountRoutes(r chi.Router) {
	r.Get("/"+e.name, e.getSingle)
	r.Get("/"+e.name+"_list", e.getList)
	r.Post("/"+e.name, e.create)
	r.Put("/"+e.name, e.update)
	r.Delete("/"+e.name, e.delete)
}

// ListResponse wraps a page of projections.
type ListResponse[RespT any] struct {
	Items      []RespT           `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func (e *Endpoints[T, CreateT, UpdateT, RespT]) getSingle(w http.ResponseWriter, r *http.Request) {
	if !e.allowed(w, r, e.perms.Single) {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	obj, err := e.store.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e.project(obj))
}

func (e *Endpoints[T, CreateT, UpdateT, RespT]) getList(w http.ResponseWriter, r *http.Request) {
	if !e.allowed(w, r, e.perms.List) {
		return
	}
	page, perPage := shared.PageFromRequest(r)
	p := shared.NewPagination(page, perPage, 0)
	objs, total, err := e.store.List(r.Context(), p.PerPage, p.Offset())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items := make([]RespT, 0, len(objs))
	for i := range objs {
		items = append(items, e.project(&objs[i]))
	}
	httpx.JSON(w, http.StatusOK, ListResponse[RespT]{
		Items:      items,
		Pagination: shared.NewPagination(page, perPage, total),
	})
}

func (e *Endpoints[T, CreateT, UpdateT, RespT]) create(w http.ResponseWriter, r *http.Request) {
	if !e.allowed(w, r, e.perms.Create) {
		return
	}
	var in CreateT
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, shared.Validationf("invalid request body"))
		return
	}
	obj, err := e.store.Create(r.Context(), in)
	if err != nil {
		e.logError("create", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e.project(obj))
}

func (e *Endpoints[T, CreateT, UpdateT, RespT]) update(w http.ResponseWriter, r *http.Request) {
	if !e.allowed(w, r, e.perms.Update) {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var patch UpdateT
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.RespondError(w, shared.Validationf("invalid request body"))
		return
	}
	obj, err := e.store.Update(r.Context(), id, patch)
	if err != nil {
		e.logError("update", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e.project(obj))
}

func (e *Endpoints[T, CreateT, UpdateT, RespT]) delete(w http.ResponseWriter, r *http.Request) {
	if !e.allowed(w, r, e.perms.Delete) {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	obj, err := e.store.Delete(r.Context(), id)
	if err != nil {
		e.logError("delete", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e.project(obj))
}

// allowed runs the conjunctive permission gate and writes the uniform denial
// response when it fails.
func (e *Endpoints[T, CreateT, UpdateT, RespT]) allowed(w http.ResponseWriter, r *http.Request, required []string) bool {
	granted := rbac.NewPermissionSet(shared.PermissionsFromContext(r.Context()))
	if err := rbac.RequireAll(granted, required...); err != nil {
		httpx.RespondError(w, err)
		return false
	}
	return true
}

func (e *Endpoints[T, CreateT, UpdateT, RespT]) logError(op string, err error) {
	if e.logger != nil {
		e.logger.Warn("crud "+op, slog.String("resource", e.name), slog.Any("error", err))
	}
}

func idParam(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.Validationf("invalid id %q", raw)
	}
	return id, nil
}
