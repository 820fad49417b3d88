package rbac

import "time"

// Role represents a named capability tier. AccessLevel orders tiers totally:
// a lower number is a higher privilege.
type Role struct {
	ID          int64
	Name        string
	Description string
	AccessLevel int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission represents an atomic named capability.
type Permission struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
}

// Grant ties a permission to a role. Grants are written once by the seeder
// and only ever looked up afterwards.
type Grant struct {
	PermissionID int64
	RoleID       int64
	UpdatedAt    time.Time
}

// Assignment links a user to its single role. The model permits at most one
// row per user; replacement happens atomically inside a transaction.
type Assignment struct {
	UserID    int64
	RoleID    int64
	UpdatedAt time.Time
}
