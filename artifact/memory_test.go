package artifact

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_OpenIsolatesFromLaterWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "obj", []byte("v1")))

	blob, err := store.Open(ctx, "obj")
	require.NoError(t, err)
	defer blob.Close()

	require.NoError(t, store.Put(ctx, "obj", []byte("v2")))

	buf := make([]byte, 2)
	n, err := blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(buf[:n]))
}

func TestMemoryStore_CreateVisibleOnClose(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	w, err := store.Create(ctx, "obj")
	require.NoError(t, err)

	_, err = w.Write([]byte("payload"))
	require.NoError(t, err)

	_, err = store.Open(ctx, "obj")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, w.Close())

	blob, err := store.Open(ctx, "obj")
	require.NoError(t, err)
	defer blob.Close()

	assert.Equal(t, int64(7), blob.Size())
}

func TestMemoryStore_List(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "runs/c.snap", nil))
	require.NoError(t, store.Put(ctx, "runs/a.snap", nil))
	require.NoError(t, store.Put(ctx, "other/b.snap", nil))

	names, err := store.List(ctx, "runs/")
	require.NoError(t, err)
	assert.Equal(t, []string{"runs/a.snap", "runs/c.snap"}, names)

	none, err := store.List(ctx, "missing/")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryBlob_ReadBounds(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "obj", []byte("01234")))

	blob, err := store.Open(ctx, "obj")
	require.NoError(t, err)
	defer blob.Close()

	buf := make([]byte, 4)
	n, err := blob.ReadAt(ctx, buf, 3)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)

	_, err = blob.ReadAt(ctx, buf, 5)
	assert.ErrorIs(t, err, io.EOF)

	r, err := blob.ReadRange(ctx, 1, 3)
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "123", string(got))
}
