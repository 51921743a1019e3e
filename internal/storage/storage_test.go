package storage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/rojitobot/internal/config"
	"github.com/edgard/rojitobot/internal/database"
	"github.com/edgard/rojitobot/internal/kv"
	"github.com/edgard/rojitobot/internal/kv/redisstore"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, config.StoreConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "state.db")},
	}, discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	assert.IsType(t, &database.Store{}, store)
	_, ok := store.(kv.Maintainer)
	assert.True(t, ok)
	require.NoError(t, store.Ping(ctx))
}

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	store, err := Open(ctx, config.StoreConfig{
		Driver: "redis",
		Redis:  config.RedisConfig{URL: "redis://" + mr.Addr(), Prefix: "test:"},
	}, discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	assert.IsType(t, &redisstore.Store{}, store)

	_, err = store.Put(ctx, "k", []byte("v"), 0)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:k"))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "etcd"}, discard())
	require.ErrorContains(t, err, "unknown store driver")
}
