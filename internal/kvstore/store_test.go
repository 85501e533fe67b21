package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemStore(),
		"sqlite": sqlite,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			item := Item{
				KeyAttribute:      "san_diego",
				"weightLiability": 0.3,
				"weightInjury":    0.2,
			}
			require.NoError(t, store.Put(ctx, "jurisdiction_weights", item))

			got, err := store.Get(ctx, "jurisdiction_weights", "san_diego")
			require.NoError(t, err)
			assert.Equal(t, "san_diego", got[KeyAttribute])
			assert.InDelta(t, 0.3, got["weightLiability"].(float64), 1e-9)
			assert.InDelta(t, 0.2, got["weightInjury"].(float64), 1e-9)
		})
	}
}

func TestStoreMissingItem(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(ctx, "jurisdiction_weights", "nowhere")
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreOverwrite(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Put(ctx, "t", Item{KeyAttribute: "k", "v": "old"}))
			require.NoError(t, store.Put(ctx, "t", Item{KeyAttribute: "k", "v": "new"}))

			got, err := store.Get(ctx, "t", "k")
			require.NoError(t, err)
			assert.Equal(t, "new", got["v"])
		})
	}
}

func TestStoreTableIsolation(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Put(ctx, "a", Item{KeyAttribute: "k", "v": "in-a"}))

			_, err := store.Get(ctx, "b", "k")
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreRejectsKeylessItem(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			err := store.Put(ctx, "t", Item{"v": 1})
			require.Error(t, err)
			assert.Contains(t, err.Error(), KeyAttribute)
		})
	}
}
