package textbooks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lectoria/lectoria/internal/shared"
)

// Store provides PostgreSQL backed persistence for textbooks. Deletion is
// soft: the row stays with is_active flipped off.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func scanTextbook(row pgx.Row) (*Textbook, error) {
	var t Textbook
	if err := row.Scan(&t.ID, &t.SchoolClass, &t.Title, &t.Slug, &t.IsActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Get fetches a textbook by id.
func (s *Store) Get(ctx context.Context, id int64) (*Textbook, error) {
	return scanTextbook(s.pool.QueryRow(ctx,
		`SELECT id, school_class, title, slug, is_active FROM textbooks WHERE id = $1`, id))
}

// List returns a page of textbooks plus the total count.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Textbook, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM textbooks`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, school_class, title, slug, is_active FROM textbooks ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var result []Textbook
	for rows.Next() {
		t, err := scanTextbook(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *t)
	}
	return result, total, rows.Err()
}

// Create inserts a textbook.
func (s *Store) Create(ctx context.Context, in CreateInput) (*Textbook, error) {
	if in.SchoolClass == 0 {
		in.SchoolClass = 5
	}
	return scanTextbook(s.pool.QueryRow(ctx, `
		INSERT INTO textbooks (school_class, title, slug, is_active)
		VALUES ($1, $2, $3, true)
		RETURNING id, school_class, title, slug, is_active`,
		in.SchoolClass, in.Title, in.Slug))
}

// Update applies the non-nil patch fields.
func (s *Store) Update(ctx context.Context, id int64, patch Patch) (*Textbook, error) {
	set := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if patch.SchoolClass != nil {
		args = append(args, *patch.SchoolClass)
		set = append(set, fmt.Sprintf("school_class = $%d", len(args)))
	}
	if patch.Title != nil {
		args = append(args, *patch.Title)
		set = append(set, fmt.Sprintf("title = $%d", len(args)))
	}
	if patch.Slug != nil {
		args = append(args, *patch.Slug)
		set = append(set, fmt.Sprintf("slug = $%d", len(args)))
	}
	if len(set) == 0 {
		return s.Get(ctx, id)
	}
	args = append(args, id)
	return scanTextbook(s.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE textbooks SET %s WHERE id = $%d
		RETURNING id, school_class, title, slug, is_active`,
		strings.Join(set, ", "), len(args)), args...))
}

// Delete blocks a textbook instead of removing the row.
func (s *Store) Delete(ctx context.Context, id int64) (*Textbook, error) {
	return scanTextbook(s.pool.QueryRow(ctx, `
		UPDATE textbooks SET is_active = false WHERE id = $1
		RETURNING id, school_class, title, slug, is_active`, id))
}
