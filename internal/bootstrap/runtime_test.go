package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"thoughtwave/internal/cache"
	"thoughtwave/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T, redisURL string) *config.Config {
	t.Helper()
	return &config.Config{
		Env:         "test",
		DatabaseURL: "sqlite://" + filepath.Join(t.TempDir(), "runtime.db"),
		RedisURL:    redisURL,
	}
}

func TestInitRuntime_WithoutRedis(t *testing.T) {
	t.Cleanup(func() { cache.SetClient(nil) })
	ctx := context.Background()

	store, rdb, err := InitRuntime(ctx, sqliteConfig(t, ""), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })

	assert.Nil(t, rdb)
	assert.Equal(t, config.DriverSQLite, store.Driver)
	assert.NoError(t, store.Ping(ctx))
}

func TestInitRuntime_WithRedis(t *testing.T) {
	t.Cleanup(func() { cache.SetClient(nil) })
	ctx := context.Background()
	mr := miniredis.RunT(t)

	store, rdb, err := InitRuntime(ctx, sqliteConfig(t, mr.Addr()), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })

	require.NotNil(t, rdb)
	assert.Same(t, rdb, cache.GetClient())
}

func TestInitRuntime_DisableCache(t *testing.T) {
	t.Cleanup(func() { cache.SetClient(nil) })
	ctx := context.Background()
	mr := miniredis.RunT(t)

	store, rdb, err := InitRuntime(ctx, sqliteConfig(t, mr.Addr()), Options{DisableCache: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })

	assert.Nil(t, rdb)
	assert.Nil(t, cache.GetClient())
}

func TestInitRuntime_BadURL(t *testing.T) {
	_, _, err := InitRuntime(context.Background(), &config.Config{DatabaseURL: "mysql://nope"}, Options{})
	assert.Error(t, err)
}
