package users

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lectoria/lectoria/internal/platform/httpx"
	"github.com/lectoria/lectoria/internal/shared"
)

// Handler wires HTTP endpoints for user management. All routes are mounted
// behind required authentication; fine-grained permission and access-level
// checks live in the service.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers user management routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/users", h.getSingle)
	r.Get("/users_list", h.getList)
	r.Post("/users", h.create)
	r.Put("/users", h.updateProfile)
	r.Put("/users/password", h.changePassword)
	r.Post("/users/lock", h.toggleLock)
	r.Put("/users/role", h.reassignRole)
}

type roleResponse struct {
	Name        string `json:"name"`
	AccessLevel int    `json:"access_level"`
}

type userResponse struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name,omitempty"`
	MiddleName  string       `json:"middle_name,omitempty"`
	LastName    string       `json:"last_name,omitempty"`
	Email       string       `json:"email"`
	Phone       string       `json:"phone,omitempty"`
	Username    string       `json:"username,omitempty"`
	IsActive    bool         `json:"is_active"`
	IsSuperuser bool         `json:"is_superuser"`
	Role        roleResponse `json:"role"`
	CreatedAt   time.Time    `json:"created_at"`
}

func toResponse(u *User) userResponse {
	return userResponse{
		ID:          u.ID,
		Name:        u.Name,
		MiddleName:  u.MiddleName,
		LastName:    u.LastName,
		Email:       u.Email,
		Phone:       u.Phone,
		Username:    u.Username,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		Role:        roleResponse{Name: u.Role.Name, AccessLevel: u.Role.AccessLevel},
		CreatedAt:   u.CreatedAt,
	}
}

func (h *Handler) getSingle(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.Get(r.Context(), shared.IdentityFromContext(r.Context()), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(user))
}

type listResponse struct {
	Items      []userResponse    `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) getList(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageFromRequest(r)
	result, pagination, err := h.service.List(r.Context(), shared.IdentityFromContext(r.Context()), page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items := make([]userResponse, 0, len(result))
	for i := range result {
		items = append(items, toResponse(&result[i]))
	}
	httpx.JSON(w, http.StatusOK, listResponse{Items: items, Pagination: pagination})
}

type createRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Username string `json:"username"`
	Role     string `json:"role" validate:"required"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validationf("invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validationf("%s", err))
		return
	}
	user, err := h.service.Create(r.Context(), shared.IdentityFromContext(r.Context()), CreateInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		LastName: req.LastName,
		Username: req.Username,
		Role:     req.Role,
	})
	if err != nil {
		h.logger.Warn("create user", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(user))
}

type profileUpdateRequest struct {
	Name       *string `json:"name"`
	MiddleName *string `json:"middle_name"`
	LastName   *string `json:"last_name"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Phone      *string `json:"phone"`
	Username   *string `json:"username"`
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req profileUpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validationf("invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validationf("%s", err))
		return
	}
	user, err := h.service.UpdateProfile(r.Context(), shared.IdentityFromContext(r.Context()), id, ProfilePatch{
		Name:       req.Name,
		MiddleName: req.MiddleName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.Phone,
		Username:   req.Username,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(user))
}

type passwordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req passwordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validationf("invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validationf("%s", err))
		return
	}
	if err := h.service.ChangePassword(r.Context(), shared.IdentityFromContext(r.Context()), id, req.NewPassword); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Message(w, http.StatusOK, fmt.Sprintf("Password for user %d updated successfully", id))
}

func (h *Handler) toggleLock(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	blocked, err := h.service.ToggleLock(r.Context(), shared.IdentityFromContext(r.Context()), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	state := "unblocked"
	if blocked {
		state = "blocked"
	}
	httpx.Message(w, http.StatusOK, fmt.Sprintf("User %d %s", id, state))
}

type reassignRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

func (h *Handler) reassignRole(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req reassignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validationf("invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validationf("%s", err))
		return
	}
	user, err := h.service.ReassignRole(r.Context(), shared.IdentityFromContext(r.Context()), id, req.Role)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(user))
}

func idParam(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.Validationf("invalid id %q", raw)
	}
	return id, nil
}
