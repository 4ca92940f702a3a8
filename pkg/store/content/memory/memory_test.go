package memory

import (
	"context"
	"testing"

	"github.com/cabinetfs/cabinet/pkg/store/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	path, err := store.Write(ctx, []byte("payload"))
	require.NoError(t, err)

	got, err := store.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	_, err = store.Read(ctx, "missing")
	assert.ErrorIs(t, err, content.ErrContentNotFound)

	require.NoError(t, store.Put(ctx, content.DerivedPath(path, 100), []byte("thumb")))
	assert.Equal(t, 2, store.Len())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	path, err := store.Write(ctx, []byte("abc"))
	require.NoError(t, err)

	got, err := store.Read(ctx, path)
	require.NoError(t, err)
	got[0] = 'X'

	again, err := store.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}
