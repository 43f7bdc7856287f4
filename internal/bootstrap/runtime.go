// Package bootstrap assembles the storage and cache runtime shared by the
// server and the maintenance commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"thoughtwave/internal/cache"
	"thoughtwave/internal/config"
	"thoughtwave/internal/middleware"
	"thoughtwave/internal/repository"

	"github.com/redis/go-redis/v9"
)

// Options control runtime initialization behavior.
type Options struct {
	// DisableCache skips Redis even when REDIS_URL is set. Maintenance
	// commands use it so they always read the backing store.
	DisableCache bool
}

// InitRuntime connects to the store selected by DATABASE_URL and to Redis.
// Redis is optional: when it is unreachable the returned client is nil and
// the store reads straight from the database.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*repository.Store, *redis.Client, error) {
	store, err := repository.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	middleware.Logger.Info("database connected", slog.String("driver", store.Driver))

	if opts.DisableCache {
		cache.SetClient(nil)
		return store, nil, nil
	}

	cache.InitRedis(cfg.RedisURL)
	rdb := cache.GetClient()
	if rdb != nil {
		store = store.WithCache()
	}
	return store, rdb, nil
}
