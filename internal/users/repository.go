package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lectoria/lectoria/internal/platform/db"
	"github.com/lectoria/lectoria/internal/shared"
)

// Repository provides PostgreSQL backed persistence for user accounts and
// their single role assignment.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `
	u.id, u.name, u.middle_name, u.last_name, u.email, u.phone, u.username,
	u.password_hash, u.is_active, u.is_superuser,
	u.created_at, u.updated_at, u.last_login_at,
	r.id, r.name, r.description, r.access_level, r.created_at, r.updated_at`

const userJoin = `
	FROM users u
	JOIN user_roles ur ON ur.user_id = u.id
	JOIN roles r ON r.id = ur.role_id`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(
		&u.ID, &u.Name, &u.MiddleName, &u.LastName, &u.Email, &u.Phone, &u.Username,
		&u.PasswordHash, &u.IsActive, &u.IsSuperuser,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt,
		&u.Role.ID, &u.Role.Name, &u.Role.Description, &u.Role.AccessLevel,
		&u.Role.CreatedAt, &u.Role.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByID fetches a user with its role.
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT`+userColumns+userJoin+` WHERE u.id = $1`, id))
}

// GetByEmail fetches a user by email with its role.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT`+userColumns+userJoin+` WHERE u.email = $1`, email))
}

// List returns a page of users plus the total count.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT`+userColumns+userJoin+` ORDER BY u.id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var result []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *u)
	}
	return result, total, rows.Err()
}

// CreateWithRole inserts the user row and its role assignment as one
// transaction. If the assignment fails the user row is rolled back with it.
func (r *Repository) CreateWithRole(ctx context.Context, in CreateInput, passwordHash string, roleID int64, superuser bool) (*User, error) {
	var userID int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO users (name, last_name, email, username, password_hash, is_active, is_superuser, created_at, updated_at, last_login_at)
			VALUES ($1, $2, $3, $4, $5, true, $6, now(), now(), now())
			RETURNING id`,
			in.Name, in.LastName, in.Email, in.Username, passwordHash, superuser).Scan(&userID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `INSERT INTO user_roles (user_id, role_id, updated_at) VALUES ($1, $2, now())`, userID, roleID)
		return err
	})
	if err != nil {
		if db.IsUniqueViolation(err, "email") {
			return nil, shared.Conflictf("user with this email already exists")
		}
		if db.IsUniqueViolation(err, "") {
			return nil, shared.Conflictf("user with this email or phone already exists")
		}
		return nil, err
	}
	return r.GetByID(ctx, userID)
}

// UpdateProfile applies the non-nil patch fields and returns the fresh row.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, patch ProfilePatch) (*User, error) {
	if patch.empty() {
		return r.GetByID(ctx, id)
	}
	set := make([]string, 0, 7)
	args := make([]any, 0, 8)
	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("name", patch.Name)
	add("middle_name", patch.MiddleName)
	add("last_name", patch.LastName)
	add("email", patch.Email)
	add("phone", patch.Phone)
	add("username", patch.Username)
	set = append(set, "updated_at = now()")
	args = append(args, id)

	tag, err := r.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d`, strings.Join(set, ", "), len(args)), args...)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, shared.Conflictf("user with this email or phone already exists")
		}
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, shared.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// UpdatePassword replaces the stored digest.
func (r *Repository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`, passwordHash, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetActive flips the soft-delete flag.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = $1, updated_at = now() WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ReplaceRole swaps the user's single role assignment atomically.
func (r *Repository) ReplaceRole(ctx context.Context, userID, roleID int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO user_roles (user_id, role_id, updated_at) VALUES ($1, $2, now())`, userID, roleID)
		return err
	})
}

// TouchLastLogin records a successful login.
func (r *Repository) TouchLastLogin(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = now() WHERE id = $1`, id)
	return err
}
