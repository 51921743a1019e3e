package redisstore_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/edgard/rojitobot/internal/kv"
	"github.com/edgard/rojitobot/internal/kv/redisstore"
)

func newStore(t *testing.T) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	store, err := redisstore.New(context.Background(), "redis://"+mr.Addr(), "rojito:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store, mr
}

func TestGetMissing(t *testing.T) {
	t.Parallel()
	store, _ := newStore(t)

	_, err := store.Get(context.Background(), "active_chats")
	require.ErrorIs(t, err, kv.ErrNotFound)
}

func TestPutVersions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, mr := newStore(t)

	v, err := store.Put(ctx, "active_chats", []byte(`{"private":{},"groups":{}}`), 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), v)
	require.Equal(t, "1", mr.HGet("rojito:active_chats", "version"))

	v, err = store.Put(ctx, "active_chats", []byte(`{}`), 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), v)

	item, err := store.Get(ctx, "active_chats")
	require.NoError(t, err)
	require.Equal(t, "{}", string(item.Value))
	require.Equal(t, int64(2), item.Version)
}

func TestPutConflict(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := newStore(t)

	_, err := store.Put(ctx, "last_broadcast", []byte("a"), 0)
	require.NoError(t, err)

	_, err = store.Put(ctx, "last_broadcast", []byte("b"), 0)
	require.ErrorIs(t, err, kv.ErrConflict)

	_, err = store.Put(ctx, "last_broadcast", []byte("b"), 3)
	require.ErrorIs(t, err, kv.ErrConflict)

	require.NoError(t, store.Ping(ctx))
}
