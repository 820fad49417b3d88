package rbac

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// PermissionLister fetches the permission names granted to a role.
type PermissionLister interface {
	RolePermissionNames(ctx context.Context, roleID int64) ([]string, error)
}

// Resolver computes the flat permission set for a role. Results may be cached
// in Redis keyed by role ID; a role's grants only change when the catalog is
// reseeded, at which point the whole cache is flushed. The resolver works
// without a cache client and then hits the store on every call.
type Resolver struct {
	store  PermissionLister
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewResolver constructs a Resolver. cache may be nil.
func NewResolver(store PermissionLister, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Resolver {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Resolver{store: store, cache: cache, ttl: ttl, logger: logger}
}

// PermissionsForRole returns the permission set granted to the role.
func (r *Resolver) PermissionsForRole(ctx context.Context, roleID int64) (PermissionSet, error) {
	if names, ok := r.cached(ctx, roleID); ok {
		return NewPermissionSet(names), nil
	}
	names, err := r.store.RolePermissionNames(ctx, roleID)
	if err != nil {
		return nil, err
	}
	r.storeCached(ctx, roleID, names)
	return NewPermissionSet(names), nil
}

// Invalidate drops the cached permission set for one role.
func (r *Resolver) Invalidate(ctx context.Context, roleID int64) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Del(ctx, cacheKey(roleID)).Err(); err != nil && r.logger != nil {
		r.logger.Warn("rbac cache invalidate", slog.Int64("role_id", roleID), slog.Any("error", err))
	}
}

// InvalidateAll drops every cached permission set, typically after the
// catalog has been reseeded.
func (r *Resolver) InvalidateAll(ctx context.Context) {
	if r.cache == nil {
		return
	}
	iter := r.cache.Scan(ctx, 0, "rbac:role_perms:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.cache.Del(ctx, iter.Val()).Err(); err != nil && r.logger != nil {
			r.logger.Warn("rbac cache invalidate", slog.String("key", iter.Val()), slog.Any("error", err))
		}
	}
	if err := iter.Err(); err != nil && r.logger != nil {
		r.logger.Warn("rbac cache scan", slog.Any("error", err))
	}
}

func (r *Resolver) cached(ctx context.Context, roleID int64) ([]string, bool) {
	if r.cache == nil {
		return nil, false
	}
	payload, err := r.cache.Get(ctx, cacheKey(roleID)).Bytes()
	if err != nil {
		if err != redis.Nil && r.logger != nil {
			r.logger.Warn("rbac cache get", slog.Any("error", err))
		}
		return nil, false
	}
	var names []string
	if err := json.Unmarshal(payload, &names); err != nil {
		return nil, false
	}
	return names, true
}

func (r *Resolver) storeCached(ctx context.Context, roleID int64, names []string) {
	if r.cache == nil {
		return
	}
	payload, err := json.Marshal(names)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, cacheKey(roleID), payload, r.ttl).Err(); err != nil && r.logger != nil {
		r.logger.Warn("rbac cache set", slog.Any("error", err))
	}
}

func cacheKey(roleID int64) string {
	return fmt.Sprintf("rbac:role_perms:%d", roleID)
}
