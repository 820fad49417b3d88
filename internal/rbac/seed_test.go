package rbac

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSeedStore struct {
	roleIDs     map[string]int64
	permIDs     map[string]int64
	grants      map[string]bool
	nextID      int64
	roleInserts int
	permInserts int
	grantWrites int
}

func newMemSeedStore() *memSeedStore {
	return &memSeedStore{
		roleIDs: make(map[string]int64),
		permIDs: make(map[string]int64),
		grants:  make(map[string]bool),
	}
}

func (m *memSeedStore) RoleIDByName(ctx context.Context, name string) (int64, bool, error) {
	id, ok := m.roleIDs[name]
	return id, ok, nil
}

func (m *memSeedStore) InsertRole(ctx context.Context, role CatalogRole) error {
	m.nextID++
	m.roleIDs[role.Name] = m.nextID
	m.roleInserts++
	return nil
}

func (m *memSeedStore) PermissionIDByName(ctx context.Context, name string) (int64, bool, error) {
	id, ok := m.permIDs[name]
	return id, ok, nil
}

func (m *memSeedStore) InsertPermission(ctx context.Context, name, description string) error {
	m.nextID++
	m.permIDs[name] = m.nextID
	m.permInserts++
	return nil
}

func (m *memSeedStore) HasGrant(ctx context.Context, permissionID, roleID int64) (bool, error) {
	return m.grants[grantKey(permissionID, roleID)], nil
}

func (m *memSeedStore) InsertGrant(ctx context.Context, permissionID, roleID int64) error {
	m.grants[grantKey(permissionID, roleID)] = true
	m.grantWrites++
	return nil
}

func grantKey(permissionID, roleID int64) string {
	return fmt.Sprintf("%d:%d", permissionID, roleID)
}

func TestSeedPopulatesCatalog(t *testing.T) {
	store := newMemSeedStore()
	catalog := DefaultCatalog()
	seeder := NewSeederWithStore(store, catalog, nil)

	require.NoError(t, seeder.Seed(context.Background()))

	assert.Equal(t, len(catalog.Roles), store.roleInserts)
	assert.Equal(t, len(catalog.Permissions), store.permInserts)

	wantGrants := 0
	for _, perms := range catalog.Grants {
		wantGrants += len(perms)
	}
	assert.Equal(t, wantGrants, store.grantWrites)
}

func TestSeedSecondRunInsertsNothing(t *testing.T) {
	store := newMemSeedStore()
	seeder := NewSeederWithStore(store, DefaultCatalog(), nil)

	ctx := context.Background()
	require.NoError(t, seeder.Seed(ctx))

	roleInserts, permInserts, grantWrites := store.roleInserts, store.permInserts, store.grantWrites

	require.NoError(t, seeder.Seed(ctx))

	assert.Equal(t, roleInserts, store.roleInserts, "second run must not insert roles")
	assert.Equal(t, permInserts, store.permInserts, "second run must not insert permissions")
	assert.Equal(t, grantWrites, store.grantWrites, "second run must not insert grants")
}

func TestSeedPartialCatalogBackfills(t *testing.T) {
	store := newMemSeedStore()
	catalog := DefaultCatalog()
	seeder := NewSeederWithStore(store, catalog, nil)

	ctx := context.Background()
	require.NoError(t, seeder.Seed(ctx))

	// A manually removed grant is restored without touching existing rows.
	for key := range store.grants {
		delete(store.grants, key)
		break
	}
	store.grantWrites = 0

	require.NoError(t, seeder.Seed(ctx))
	assert.Equal(t, 1, store.grantWrites, "only the missing grant is re-inserted")
	assert.Equal(t, len(catalog.Roles), store.roleInserts)
	assert.Equal(t, len(catalog.Permissions), store.permInserts)
}
