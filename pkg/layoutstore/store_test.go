package layoutstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-insights/components/insights"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store, err := NewRedisStore(client, "")
	require.NoError(t, err)
	return store, mr
}

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoresRoundTrip(t *testing.T) {
	redisStore, _ := newRedisStore(t)
	stores := map[string]insights.LayoutStore{
		"redis":  redisStore,
		"sqlite": newSQLiteStore(t),
	}
	placements := []insights.WidgetPlacement{
		{ID: "clients_by_city", X: 0, Y: 0, W: 6, H: 2},
		{ID: "clients_by_status", X: 6, Y: 0, W: 6, H: 2},
		{ID: "clients_edge", X: 8, Y: 40, W: 4, H: 24},
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, ok, err := store.LoadLayout(ctx, "Clientes")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.SaveLayout(ctx, "Clientes", placements))
			got, ok, err := store.LoadLayout(ctx, "Clientes")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, placements, got)

			require.NoError(t, store.SaveLayout(ctx, "Clientes", placements[:1]))
			got, _, err = store.LoadLayout(ctx, "Clientes")
			require.NoError(t, err)
			assert.Len(t, got, 1)

			assert.Error(t, store.SaveLayout(ctx, " ", placements))
		})
	}
}

func TestRedisStoreNamespacesKeys(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, store.SaveLayout(context.Background(), "Clientes", nil))
	assert.True(t, mr.Exists("insights:layout_Clientes"))

	raw, err := mr.Get("insights:layout_Clientes")
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestRedisStoreRejectsCorruptRecord(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, mr.Set("insights:layout_Clientes", "not-json"))
	_, _, err := store.LoadLayout(context.Background(), "Clientes")
	assert.Error(t, err)
}

func TestNewRedisStoreRequiresClient(t *testing.T) {
	if _, err := NewRedisStore(nil, ""); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
