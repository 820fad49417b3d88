package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedStore is the row-level access the Seeder needs. Lookups report absence
// through the found flag rather than an error.
type SeedStore interface {
	RoleIDByName(ctx context.Context, name string) (int64, bool, error)
	InsertRole(ctx context.Context, role CatalogRole) error
	PermissionIDByName(ctx context.Context, name string) (int64, bool, error)
	InsertPermission(ctx context.Context, name, description string) error
	HasGrant(ctx context.Context, permissionID, roleID int64) (bool, error)
	InsertGrant(ctx context.Context, permissionID, roleID int64) error
}

// Seeder loads the static catalog into the store. Seeding is idempotent and
// safe to run from several process instances at once: every row is guarded by
// an existence check plus ON CONFLICT DO NOTHING.
type Seeder struct {
	store   SeedStore
	catalog Catalog
	logger  *slog.Logger
}

// NewSeeder constructs a Seeder for the given catalog.
func NewSeeder(pool *pgxpool.Pool, catalog Catalog, logger *slog.Logger) *Seeder {
	return NewSeederWithStore(&pgxSeedStore{pool: pool}, catalog, logger)
}

// NewSeederWithStore constructs a Seeder over any SeedStore.
func NewSeederWithStore(store SeedStore, catalog Catalog, logger *slog.Logger) *Seeder {
	return &Seeder{store: store, catalog: catalog, logger: logger}
}

// Seed writes roles, permissions and grants. It must complete before the
// service accepts traffic.
func (s *Seeder) Seed(ctx context.Context) error {
	if err := s.seedRoles(ctx); err != nil {
		return fmt.Errorf("rbac: seed roles: %w", err)
	}
	if err := s.seedPermissions(ctx); err != nil {
		return fmt.Errorf("rbac: seed permissions: %w", err)
	}
	if err := s.seedGrants(ctx); err != nil {
		return fmt.Errorf("rbac: seed grants: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("rbac catalog seeded",
			slog.Int("roles", len(s.catalog.Roles)),
			slog.Int("permissions", len(s.catalog.Permissions)))
	}
	return nil
}

func (s *Seeder) seedRoles(ctx context.Context) error {
	for _, role := range s.catalog.Roles {
		_, found, err := s.store.RoleIDByName(ctx, role.Name)
		if err != nil {
			return err
		}
		if found {
			continue
		}
		if err := s.store.InsertRole(ctx, role); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedPermissions(ctx context.Context) error {
	for name, description := range s.catalog.Permissions {
		_, found, err := s.store.PermissionIDByName(ctx, name)
		if err != nil {
			return err
		}
		if found {
			continue
		}
		if err := s.store.InsertPermission(ctx, name, description); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedGrants(ctx context.Context) error {
	for roleName, permNames := range s.catalog.Grants {
		roleID, found, err := s.store.RoleIDByName(ctx, roleName)
		if err != nil {
			return fmt.Errorf("role %s: %w", roleName, err)
		}
		if !found {
			return fmt.Errorf("role %s: not seeded", roleName)
		}
		for _, permName := range permNames {
			permID, found, err := s.store.PermissionIDByName(ctx, permName)
			if err != nil {
				return fmt.Errorf("permission %s: %w", permName, err)
			}
			if !found {
				return fmt.Errorf("permission %s: not seeded", permName)
			}
			exists, err := s.store.HasGrant(ctx, permID, roleID)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			if err := s.store.InsertGrant(ctx, permID, roleID); err != nil {
				return err
			}
		}
	}
	return nil
}

// pgxSeedStore is the PostgreSQL SeedStore.
type pgxSeedStore struct {
	pool *pgxpool.Pool
}

func (s *pgxSeedStore) RoleIDByName(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `SELECT id FROM roles WHERE name = $1`, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (s *pgxSeedStore) InsertRole(ctx context.Context, role CatalogRole) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO roles (name, description, access_level, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (name) DO NOTHING`,
		role.Name, role.Description, role.AccessLevel)
	return err
}

func (s *pgxSeedStore) PermissionIDByName(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `SELECT id FROM permissions WHERE name = $1`, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (s *pgxSeedStore) InsertPermission(ctx context.Context, name, description string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO permissions (name, description, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO NOTHING`,
		name, description)
	return err
}

func (s *pgxSeedStore) HasGrant(ctx context.Context, permissionID, roleID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT true FROM role_permissions WHERE permission_id = $1 AND role_id = $2`,
		permissionID, roleID).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (s *pgxSeedStore) InsertGrant(ctx context.Context, permissionID, roleID int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO role_permissions (permission_id, role_id, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT DO NOTHING`,
		permissionID, roleID)
	return err
}
