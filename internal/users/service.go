package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/lectoria/lectoria/internal/rbac"
	"github.com/lectoria/lectoria/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]User, int, error)
	CreateWithRole(ctx context.Context, in CreateInput, passwordHash string, roleID int64, superuser bool) (*User, error)
	UpdateProfile(ctx context.Context, id int64, patch ProfilePatch) (*User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	SetActive(ctx context.Context, id int64, active bool) error
	ReplaceRole(ctx context.Context, userID, roleID int64) error
	TouchLastLogin(ctx context.Context, id int64) error
}

// RoleFinder resolves catalog roles by name.
type RoleFinder interface {
	GetRoleByName(ctx context.Context, name string) (rbac.Role, error)
}

// Service handles user management business rules. Every operation takes the
// acting identity and performs its own permission and access-level checks;
// a nil actor is anonymous and holds the empty permission set.
type Service struct {
	repo  RepositoryPort
	roles RoleFinder
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, roles RoleFinder) *Service {
	return &Service{repo: repo, roles: roles}
}

// List returns a page of users. Requires GET_USERS_LIST.
func (s *Service) List(ctx context.Context, actor *shared.Identity, page, perPage int) ([]User, shared.Pagination, error) {
	if err := rbac.RequireAll(grantedOf(actor), rbac.PermGetUsersList); err != nil {
		return nil, shared.Pagination{}, err
	}
	p := shared.NewPagination(page, perPage, 0)
	result, total, err := s.repo.List(ctx, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return result, shared.NewPagination(page, perPage, total), nil
}

// Get fetches one user by id. Requires GET_USERS_LIST.
func (s *Service) Get(ctx context.Context, actor *shared.Identity, id int64) (*User, error) {
	if err := rbac.RequireAll(grantedOf(actor), rbac.PermGetUsersList); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Create provisions a user with the requested role. The role must sit on the
// creatable allow-list, the actor must hold the role-specific creation
// permission, and the user row plus role assignment commit as one unit.
func (s *Service) Create(ctx context.Context, actor *shared.Identity, in CreateInput) (*User, error) {
	requiredPerm, err := rbac.CreationPermission(in.Role)
	if err != nil {
		return nil, err
	}
	if err := rbac.RequireAll(grantedOf(actor), requiredPerm); err != nil {
		return nil, err
	}

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, shared.Conflictf("user with this email already exists")
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	role, err := s.roles.GetRoleByName(ctx, in.Role)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateWithRole(ctx, in, string(hash), role.ID, role.Name == rbac.RoleSuperuser)
}

// UpdateProfile applies a partial profile update to another user. Requires
// CHANGE_ANOTHER_USERS_PROFILE and a strictly lower target access tier.
func (s *Service) UpdateProfile(ctx context.Context, actor *shared.Identity, targetID int64, patch ProfilePatch) (*User, error) {
	target, err := s.guardCrossUser(ctx, actor, targetID, rbac.PermChangeProfile)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateProfile(ctx, target.ID, patch)
}

// ChangePassword replaces another user's password digest. Requires
// CHANGE_ANOTHER_USERS_PASSWORD and a strictly lower target access tier.
func (s *Service) ChangePassword(ctx context.Context, actor *shared.Identity, targetID int64, newPassword string) error {
	target, err := s.guardCrossUser(ctx, actor, targetID, rbac.PermChangePasswd)
	if err != nil {
		return err
	}
	if len(newPassword) < 8 {
		return shared.Validationf("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, target.ID, string(hash))
}

// ToggleLock blocks an active user or unblocks a blocked one. Requires
// BLOCK_USERS and a strictly lower target access tier. Returns the new
// blocked state.
func (s *Service) ToggleLock(ctx context.Context, actor *shared.Identity, targetID int64) (blocked bool, err error) {
	target, err := s.guardCrossUser(ctx, actor, targetID, rbac.PermBlockUsers)
	if err != nil {
		return false, err
	}
	if err := s.repo.SetActive(ctx, target.ID, !target.IsActive); err != nil {
		return false, err
	}
	return target.IsActive, nil
}

// ReassignRole replaces the target's single role. The actor needs the
// creation permission of the new role and must outrank the target's current
// role; there is no separate first-assignment path.
func (s *Service) ReassignRole(ctx context.Context, actor *shared.Identity, targetID int64, roleName string) (*User, error) {
	requiredPerm, err := rbac.CreationPermission(roleName)
	if err != nil {
		return nil, err
	}
	if err := rbac.RequireAll(grantedOf(actor), requiredPerm); err != nil {
		return nil, err
	}
	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := rbac.RequireLowerLevel(roleOf(actor), target.Role); err != nil {
		return nil, err
	}
	role, err := s.roles.GetRoleByName(ctx, roleName)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceRole(ctx, target.ID, role.ID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, target.ID)
}

// EnsureSuperuser bootstraps the first administrator account. Idempotent:
// an existing account with the given email is left untouched.
func (s *Service) EnsureSuperuser(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	role, err := s.roles.GetRoleByName(ctx, rbac.RoleSuperuser)
	if err != nil {
		return fmt.Errorf("users: superuser role missing, run seeding first: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.repo.CreateWithRole(ctx, CreateInput{Email: email, Role: role.Name}, string(hash), role.ID, true)
	if err != nil && errors.Is(err, shared.ErrConflict) {
		// Another instance bootstrapped concurrently.
		return nil
	}
	return err
}

// guardCrossUser runs the shared permission-then-level gate for operations
// that mutate another user. Both checks must pass; either failure surfaces as
// the same permission-denied error.
func (s *Service) guardCrossUser(ctx context.Context, actor *shared.Identity, targetID int64, perm string) (*User, error) {
	if err := rbac.RequireAll(grantedOf(actor), perm); err != nil {
		return nil, err
	}
	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := rbac.RequireLowerLevel(roleOf(actor), target.Role); err != nil {
		return nil, err
	}
	return target, nil
}

func grantedOf(actor *shared.Identity) rbac.PermissionSet {
	if actor == nil {
		return rbac.NewPermissionSet(nil)
	}
	return rbac.NewPermissionSet(actor.Permissions)
}

func roleOf(actor *shared.Identity) rbac.Role {
	if actor == nil {
		// An anonymous actor outranks nobody.
		return rbac.Role{AccessLevel: 1 << 30}
	}
	return rbac.Role{Name: actor.RoleName, AccessLevel: actor.AccessLevel}
}
