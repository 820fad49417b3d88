package crud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectoria/lectoria/internal/rbac"
	"github.com/lectoria/lectoria/internal/shared"
)

type note struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	IsActive bool   `json:"is_active"`
}

type noteCreate struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type notePatch struct {
	Title *string `json:"title"`
	Body  *string `json:"body"`
}

// memStore is an in-memory Store with soft delete.
type memStore struct {
	notes  map[int64]*note
	nextID int64
}

func newMemStore() *memStore {
	return &memStore{notes: make(map[int64]*note), nextID: 1}
}

func (m *memStore) Get(ctx context.Context, id int64) (*note, error) {
	n, ok := m.notes[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (m *memStore) List(ctx context.Context, limit, offset int) ([]note, int, error) {
	var result []note
	for id := int64(1); id < m.nextID; id++ {
		if n, ok := m.notes[id]; ok {
			result = append(result, *n)
		}
	}
	return result, len(result), nil
}

func (m *memStore) Create(ctx context.Context, in noteCreate) (*note, error) {
	n := &note{ID: m.nextID, Title: in.Title, Body: in.Body, IsActive: true}
	m.nextID++
	m.notes[n.ID] = n
	cp := *n
	return &cp, nil
}

func (m *memStore) Update(ctx context.Context, id int64, patch notePatch) (*note, error) {
	n, ok := m.notes[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.Body != nil {
		n.Body = *patch.Body
	}
	cp := *n
	return &cp, nil
}

func (m *memStore) Delete(ctx context.Context, id int64) (*note, error) {
	n, ok := m.notes[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	n.IsActive = false
	cp := *n
	return &cp, nil
}

func newNoteRouter(store *memStore, perms PermissionMap) http.Handler {
	endpoints := NewEndpoints("notes", store, func(n *note) note { return *n }, perms, nil)
	router := chi.NewRouter()
	endpoints.MountRoutes(router)
	return router
}

func do(t *testing.T, router http.Handler, method, target string, body any, perms []string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if perms != nil {
		identity := &shared.Identity{UserID: 1, RoleName: rbac.RoleTeacher, AccessLevel: 2, Permissions: perms}
		req = req.WithContext(shared.ContextWithIdentity(req.Context(), identity))
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestGetSingleOpenToAnonymous(t *testing.T) {
	store := newMemStore()
	_, err := store.Create(context.Background(), noteCreate{Title: "Algebra"})
	require.NoError(t, err)

	// Empty Single permission list admits a caller with zero permissions.
	router := newNoteRouter(store, DefaultPermissionMap())
	res := do(t, router, http.MethodGet, "/notes?id=1", nil, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var got note
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &got))
	assert.Equal(t, "Algebra", got.Title)
}

func TestGetSingleNotFound(t *testing.T) {
	router := newNoteRouter(newMemStore(), DefaultPermissionMap())
	res := do(t, router, http.MethodGet, "/notes?id=9", nil, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestCreateRequiresPermission(t *testing.T) {
	router := newNoteRouter(newMemStore(), DefaultPermissionMap())

	res := do(t, router, http.MethodPost, "/notes", noteCreate{Title: "x"}, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, res.Code)
	assert.JSONEq(t, `{"msg":"Method not allowed!"}`, res.Body.String())

	res = do(t, router, http.MethodPost, "/notes", noteCreate{Title: "x"}, []string{rbac.PermGetObject})
	assert.Equal(t, http.StatusMethodNotAllowed, res.Code)

	res = do(t, router, http.MethodPost, "/notes", noteCreate{Title: "x"}, []string{rbac.PermCreateObject})
	assert.Equal(t, http.StatusCreated, res.Code, res.Body.String())
}

func TestPermissionsAreConjunctive(t *testing.T) {
	perms := DefaultPermissionMap()
	perms.Delete = []string{rbac.PermBlockObject, rbac.PermEditObject}
	store := newMemStore()
	_, err := store.Create(context.Background(), noteCreate{Title: "x"})
	require.NoError(t, err)
	router := newNoteRouter(store, perms)

	// Holding one of two required permissions is not enough.
	res := do(t, router, http.MethodDelete, "/notes?id=1", nil, []string{rbac.PermBlockObject})
	assert.Equal(t, http.StatusMethodNotAllowed, res.Code)

	res = do(t, router, http.MethodDelete, "/notes?id=1", nil, []string{rbac.PermBlockObject, rbac.PermEditObject})
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestUpdatePartialMerge(t *testing.T) {
	store := newMemStore()
	_, err := store.Create(context.Background(), noteCreate{Title: "Algebra", Body: "Chapter 1"})
	require.NoError(t, err)
	router := newNoteRouter(store, DefaultPermissionMap())

	title := "Geometry"
	res := do(t, router, http.MethodPut, "/notes?id=1", notePatch{Title: &title}, []string{rbac.PermEditObject})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var got note
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &got))
	assert.Equal(t, "Geometry", got.Title)
	assert.Equal(t, "Chapter 1", got.Body, "absent patch fields keep prior values")
}

func TestUpdateMissingID(t *testing.T) {
	router := newNoteRouter(newMemStore(), DefaultPermissionMap())
	title := "x"
	res := do(t, router, http.MethodPut, "/notes?id=5", notePatch{Title: &title}, []string{rbac.PermEditObject})
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestDeleteSoftDeletes(t *testing.T) {
	store := newMemStore()
	_, err := store.Create(context.Background(), noteCreate{Title: "x"})
	require.NoError(t, err)
	router := newNoteRouter(store, DefaultPermissionMap())

	res := do(t, router, http.MethodDelete, "/notes?id=1", nil, []string{rbac.PermBlockObject})
	require.Equal(t, http.StatusOK, res.Code)

	var got note
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &got))
	assert.False(t, got.IsActive)
	assert.False(t, store.notes[1].IsActive, "row survives with the flag flipped")
}

func TestListPaginates(t *testing.T) {
	store := newMemStore()
	for i := 0; i < 5; i++ {
		_, err := store.Create(context.Background(), noteCreate{Title: fmt.Sprintf("n%d", i)})
		require.NoError(t, err)
	}
	router := newNoteRouter(store, DefaultPermissionMap())

	res := do(t, router, http.MethodGet, "/notes_list", nil, nil)
	require.Equal(t, http.StatusOK, res.Code)

	var got ListResponse[note]
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &got))
	assert.Len(t, got.Items, 5)
	assert.Equal(t, 5, got.Pagination.Total)
}

func TestInvalidIDParam(t *testing.T) {
	router := newNoteRouter(newMemStore(), DefaultPermissionMap())
	res := do(t, router, http.MethodGet, "/notes?id=abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}
