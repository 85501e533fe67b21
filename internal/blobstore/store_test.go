package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	return map[string]Store{
		"memory":     NewMemStore(),
		"filesystem": fs,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Put(ctx, "docs", "uploads/case-1.pdf", []byte("pdf bytes")))
			got, err := store.Get(ctx, "docs", "uploads/case-1.pdf")
			require.NoError(t, err)
			assert.Equal(t, []byte("pdf bytes"), got)

			// Overwrite wins.
			require.NoError(t, store.Put(ctx, "docs", "uploads/case-1.pdf", []byte("v2")))
			got, err = store.Get(ctx, "docs", "uploads/case-1.pdf")
			require.NoError(t, err)
			assert.Equal(t, []byte("v2"), got)
		})
	}
}

func TestStoreMissingBlob(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(context.Background(), "docs", "nope")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreBucketIsolation(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Put(ctx, "docs", "k", []byte("a")))

			_, err := store.Get(ctx, "prompts", "k")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestMemStoreCopiesOnReadAndWrite(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	original := []byte("immutable")
	require.NoError(t, store.Put(ctx, "b", "k", original))
	original[0] = 'X'

	got, err := store.Get(ctx, "b", "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("immutable"), got)

	got[0] = 'Y'
	again, err := store.Get(ctx, "b", "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("immutable"), again)
}

func TestFSStoreRejectsEscapingKeys(t *testing.T) {
	fs, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	assert.Error(t, fs.Put(ctx, "docs", "../outside", []byte("x")))
	assert.Error(t, fs.Put(ctx, "docs", "a/../../outside", []byte("x")))
	_, err = fs.Get(ctx, "docs", "../../etc/passwd")
	assert.Error(t, err)
}
