package folders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ziadkadry99/docrag/internal/index"
)

func newDirectory(t *testing.T) (*Directory, *index.BleveStore) {
	t.Helper()
	store, err := index.OpenBleve(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(store, zaptest.NewLogger(t)), store
}

func TestDirectory_CreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	d, store := newDirectory(t)

	require.NoError(t, d.Create(ctx, "notes"))
	require.NoError(t, d.Create(ctx, "notes"))

	exists, err := d.Exists(ctx, "notes")
	require.NoError(t, err)
	assert.True(t, exists)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}

func TestDirectory_Ensure(t *testing.T) {
	ctx := context.Background()
	d, _ := newDirectory(t)

	created, err := d.Ensure(ctx, "")
	require.NoError(t, err)
	assert.False(t, created, "root never gets a marker")

	created, err = d.Ensure(ctx, "projects")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = d.Ensure(ctx, "projects")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestDirectory_EnsureIsNotRecursive(t *testing.T) {
	ctx := context.Background()
	d, _ := newDirectory(t)

	created, err := d.Ensure(ctx, "a/b/c")
	require.NoError(t, err)
	assert.True(t, created)

	for _, p := range []string{"a", "a/b"} {
		exists, err := d.Exists(ctx, p)
		require.NoError(t, err)
		assert.False(t, exists, p)
	}
}

func TestDirectory_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	d, store := newDirectory(t)

	require.NoError(t, d.Create(ctx, "trash"))
	require.NoError(t, store.Upsert(ctx, index.Record{ID: "x", Content: "x", FolderPath: "trash"}))
	require.NoError(t, store.Upsert(ctx, index.Record{ID: "y", Content: "y", FolderPath: "keep"}))

	deleted, err := d.Delete(ctx, "trash")
	require.NoError(t, err)
	assert.True(t, deleted)

	recs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "keep", recs[0].FolderPath)
}

func TestDirectory_DeleteLeavesNestedFolders(t *testing.T) {
	ctx := context.Background()
	d, store := newDirectory(t)

	require.NoError(t, d.Create(ctx, "a"))
	require.NoError(t, d.Create(ctx, "a/b"))
	require.NoError(t, store.Upsert(ctx, index.Record{ID: "deep", Content: "nested", FolderPath: "a/b"}))

	_, err := d.Delete(ctx, "a")
	require.NoError(t, err)

	exists, err := d.Exists(ctx, "a/b")
	require.NoError(t, err)
	assert.True(t, exists, "sub-folder marker is only removed by its own delete")

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
}
