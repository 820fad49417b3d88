package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lectoria/lectoria/internal/auth"
	"github.com/lectoria/lectoria/internal/rbac"
	"github.com/lectoria/lectoria/internal/shared"
	"github.com/lectoria/lectoria/internal/token"
	"github.com/lectoria/lectoria/internal/users"
)

type stubSource struct {
	byID    map[int64]*users.User
	byEmail map[string]*users.User
}

func (s *stubSource) GetByID(ctx context.Context, id int64) (*users.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (s *stubSource) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (s *stubSource) TouchLastLogin(ctx context.Context, id int64) error { return nil }

type stubPerms struct{}

func (stubPerms) RolePermissionNames(ctx context.Context, roleID int64) ([]string, error) {
	return []string{rbac.PermGetObject, rbac.PermGetObjectList}, nil
}

func newFixture(t *testing.T) (*auth.Service, *auth.Authenticator, *stubSource, *token.Codec) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := &users.User{
		ID:           1,
		Email:        "user@test.local",
		PasswordHash: string(hash),
		IsActive:     true,
		Role:         rbac.Role{ID: 3, Name: rbac.RoleUser, AccessLevel: 3},
	}
	source := &stubSource{
		byID:    map[int64]*users.User{1: user},
		byEmail: map[string]*users.User{"user@test.local": user},
	}
	codec := token.NewCodec("test-secret", time.Minute, time.Hour)
	resolver := rbac.NewResolver(stubPerms{}, nil, time.Minute, nil)
	service := auth.NewService(source, codec)
	authenticator := auth.NewAuthenticator(codec, source, resolver, nil)
	return service, authenticator, source, codec
}

func TestLoginIssuesPair(t *testing.T) {
	service, authenticator, _, codec := newFixture(t)
	handler := auth.NewHandler(testLogger(), service, authenticator)

	res := serve(t, handler, http.MethodPost, "/auth/login",
		map[string]string{"email": "user@test.local", "password": "correctpass"}, "")
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var pair token.Pair
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &pair))
	subject, err := codec.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), subject.ID)
}

func TestLoginAcceptsAnyEmailCasing(t *testing.T) {
	service, authenticator, _, _ := newFixture(t)
	handler := auth.NewHandler(testLogger(), service, authenticator)

	// Stored emails are lowercased; the login credential may not be.
	res := serve(t, handler, http.MethodPost, "/auth/login",
		map[string]string{"email": "User@Test.Local", "password": "correctpass"}, "")
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var pair token.Pair
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &pair))
	assert.NotEmpty(t, pair.AccessToken)
}

func TestLoginWrongPassword(t *testing.T) {
	service, authenticator, _, _ := newFixture(t)
	handler := auth.NewHandler(testLogger(), service, authenticator)

	res := serve(t, handler, http.MethodPost, "/auth/login",
		map[string]string{"email": "user@test.local", "password": "wrongpass1"}, "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLoginBlockedUser(t *testing.T) {
	service, authenticator, source, _ := newFixture(t)
	source.byEmail["user@test.local"].IsActive = false
	handler := auth.NewHandler(testLogger(), service, authenticator)

	res := serve(t, handler, http.MethodPost, "/auth/login",
		map[string]string{"email": "user@test.local", "password": "correctpass"}, "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRefreshRoundTrip(t *testing.T) {
	service, authenticator, _, codec := newFixture(t)
	handler := auth.NewHandler(testLogger(), service, authenticator)

	pair, err := codec.IssuePair(1)
	require.NoError(t, err)

	res := serve(t, handler, http.MethodPost, "/auth/refresh",
		map[string]string{"refresh_token": pair.RefreshToken}, "")
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var fresh token.Pair
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &fresh))
	_, err = codec.ParseAccess(fresh.AccessToken)
	assert.NoError(t, err)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	service, authenticator, _, codec := newFixture(t)
	handler := auth.NewHandler(testLogger(), service, authenticator)

	pair, err := codec.IssuePair(1)
	require.NoError(t, err)

	res := serve(t, handler, http.MethodPost, "/auth/refresh",
		map[string]string{"refresh_token": pair.AccessToken}, "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestMeRequiresToken(t *testing.T) {
	service, authenticator, _, codec := newFixture(t)
	handler := auth.NewHandler(testLogger(), service, authenticator)

	res := serve(t, handler, http.MethodGet, "/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	pair, err := codec.IssuePair(1)
	require.NoError(t, err)
	res = serve(t, handler, http.MethodGet, "/auth/me", nil, pair.AccessToken)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var me struct {
		ID          int64    `json:"id"`
		Role        string   `json:"role"`
		Permissions []string `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &me))
	assert.Equal(t, int64(1), me.ID)
	assert.Equal(t, rbac.RoleUser, me.Role)
	assert.Contains(t, me.Permissions, rbac.PermGetObject)
}

func TestRequiredRejectsUnknownSubject(t *testing.T) {
	_, authenticator, _, codec := newFixture(t)

	pair, err := codec.IssuePair(777)
	require.NoError(t, err)

	called := false
	mw := authenticator.Required(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	res := httptest.NewRecorder()
	mw.ServeHTTP(res, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestOptionalAnonymousOnInvalidToken(t *testing.T) {
	_, authenticator, _, _ := newFixture(t)

	var got *shared.Identity
	mw := authenticator.Optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = shared.IdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	res := httptest.NewRecorder()
	mw.ServeHTTP(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Nil(t, got, "invalid token resolves to anonymous")
}

func TestOptionalHardFailureOnMissingAccount(t *testing.T) {
	_, authenticator, _, codec := newFixture(t)

	pair, err := codec.IssuePair(777)
	require.NoError(t, err)

	called := false
	mw := authenticator.Optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	res := httptest.NewRecorder()
	mw.ServeHTTP(res, req)

	assert.False(t, called, "valid token with no account is a hard failure")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestCookieTransport(t *testing.T) {
	_, authenticator, _, codec := newFixture(t)

	pair, err := codec.IssuePair(1)
	require.NoError(t, err)

	var got *shared.Identity
	mw := authenticator.Required(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = shared.IdentityFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: pair.AccessToken})
	res := httptest.NewRecorder()
	mw.ServeHTTP(res, req)

	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.UserID)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serve mounts the handler on a chi router and performs one request.
func serve(t *testing.T, handler *auth.Handler, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	router := chi.NewRouter()
	router.Route("/auth", handler.MountRoutes)
	var reqBody *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(payload)
	} else {
		reqBody = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}
