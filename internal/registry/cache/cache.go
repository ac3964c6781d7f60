// Package cache decorates a role store with a Redis lookup cache. Role reads
// gate every lifecycle operation, so they are the hottest path in the system.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	id "firledger/pkg/domain"
)

// Store is the underlying registry store being decorated.
type Store interface {
	Set(ctx context.Context, target id.Identity, role id.Role) error
	Get(ctx context.Context, identity id.Identity) (id.Role, error)
}

// RoleCache is a write-through, TTL-bounded cache in front of a role store.
// Cache failures are logged and absorbed: the store remains the source of
// truth and a cold cache only costs latency, never correctness.
type RoleCache struct {
	store  Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New constructs a RoleCache. ttl bounds how stale a cached role may be.
func New(store Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) *RoleCache {
	return &RoleCache{store: store, client: client, ttl: ttl, logger: logger}
}

func cacheKey(identity id.Identity) string {
	return "role:" + identity.String()
}

// Set writes through to the store, then refreshes the cache entry. The store
// write decides success; a failed cache refresh falls back to invalidation.
func (c *RoleCache) Set(ctx context.Context, target id.Identity, role id.Role) error {
	if err := c.store.Set(ctx, target, role); err != nil {
		return err
	}
	if err := c.client.Set(ctx, cacheKey(target), role.String(), c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "role cache refresh failed, invalidating",
			"identity", target.String(),
			"error", err,
		)
		if delErr := c.client.Del(ctx, cacheKey(target)).Err(); delErr != nil {
			c.logger.WarnContext(ctx, "role cache invalidation failed",
				"identity", target.String(),
				"error", delErr,
			)
		}
	}
	return nil
}

// Get serves from the cache when possible, falling back to the store and
// repopulating on miss.
func (c *RoleCache) Get(ctx context.Context, identity id.Identity) (id.Role, error) {
	raw, err := c.client.Get(ctx, cacheKey(identity)).Result()
	if err == nil {
		if role, parseErr := id.ParseRole(raw); parseErr == nil {
			return role, nil
		}
		// Unparseable entry: drop it and fall through to the store.
		_ = c.client.Del(ctx, cacheKey(identity)).Err()
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "role cache read failed, falling back to store",
			"identity", identity.String(),
			"error", err,
		)
	}

	role, err := c.store.Get(ctx, identity)
	if err != nil {
		return id.RoleNone, err
	}
	if err := c.client.Set(ctx, cacheKey(identity), role.String(), c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "role cache populate failed",
			"identity", identity.String(),
			"error", err,
		)
	}
	return role, nil
}
