package users

import (
	"time"

	"github.com/lectoria/lectoria/internal/rbac"
)

// User represents a user account together with its eagerly loaded role.
// Accounts are never physically removed: blocking flips IsActive instead.
type User struct {
	ID           int64
	Name         string
	MiddleName   string
	LastName     string
	Email        string
	Phone        string
	Username     string
	PasswordHash string
	IsActive     bool
	IsSuperuser  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  time.Time

	Role rbac.Role
}

// CreateInput carries the fields accepted when provisioning a user.
type CreateInput struct {
	Email    string
	Password string
	Name     string
	LastName string
	Username string
	Role     string
}

// ProfilePatch applies a partial profile update: nil fields keep their
// current values and are never nulled out.
type ProfilePatch struct {
	Name       *string
	MiddleName *string
	LastName   *string
	Email      *string
	Phone      *string
	Username   *string
}

func (p ProfilePatch) empty() bool {
	return p.Name == nil && p.MiddleName == nil && p.LastName == nil &&
		p.Email == nil && p.Phone == nil && p.Username == nil
}
