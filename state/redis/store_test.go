package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/marcelsud/teams-inbox/state"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (context.Context, *miniredis.Miniredis, *Store) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "miniredis start")
	t.Cleanup(mr.Close)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return context.Background(), mr, NewStoreWithClient(client)
}

func TestStore_GetSet(t *testing.T) {
	t.Run("missing key returns ErrNotFound", func(t *testing.T) {
		ctx, _, store := setupStore(t)

		_, err := store.Get(ctx, state.KeyAccessToken)

		assert.ErrorIs(t, err, state.ErrNotFound)
	})

	t.Run("set overwrites and is prefixed", func(t *testing.T) {
		ctx, mr, store := setupStore(t)

		require.NoError(t, store.Set(ctx, state.KeyAccessToken, "first"))
		require.NoError(t, store.Set(ctx, state.KeyAccessToken, "second"))

		value, err := store.Get(ctx, state.KeyAccessToken)
		require.NoError(t, err)
		assert.Equal(t, "second", value)

		raw, err := mr.Get("state:" + state.KeyAccessToken)
		require.NoError(t, err)
		assert.Equal(t, "second", raw)
	})

	t.Run("delete removes the key", func(t *testing.T) {
		ctx, _, store := setupStore(t)

		require.NoError(t, store.Set(ctx, state.KeySubscriptionID, "sub-1"))
		require.NoError(t, store.Delete(ctx, state.KeySubscriptionID))

		_, err := store.Get(ctx, state.KeySubscriptionID)
		assert.ErrorIs(t, err, state.ErrNotFound)
	})
}
