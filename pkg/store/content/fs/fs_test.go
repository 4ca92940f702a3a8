package fs

import (
	"context"
	"testing"

	"github.com/cabinetfs/cabinet/pkg/store/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStore_WriteRead(t *testing.T) {
	store, err := NewFSStore(context.Background(), t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	data := []byte("Hello Webstack!\n")
	path, err := store.Write(ctx, data)
	require.NoError(t, err)
	require.NotEmpty(t, path)

	got, err := store.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestFSStore_UniquePaths(t *testing.T) {
	store, err := NewFSStore(context.Background(), t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	first, err := store.Write(ctx, []byte("one"))
	require.NoError(t, err)
	second, err := store.Write(ctx, []byte("two"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	got, err := store.Read(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got)
}

func TestFSStore_DerivedArtifacts(t *testing.T) {
	store, err := NewFSStore(context.Background(), t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	original, err := store.Write(ctx, []byte("original bytes"))
	require.NoError(t, err)

	derived := content.DerivedPath(original, 100)
	require.NoError(t, store.Put(ctx, derived, []byte("small bytes")))

	got, err := store.Read(ctx, derived)
	require.NoError(t, err)
	assert.Equal(t, []byte("small bytes"), got)

	// The original is untouched
	got, err = store.Read(ctx, original)
	require.NoError(t, err)
	assert.Equal(t, []byte("original bytes"), got)
}

func TestFSStore_MissingContent(t *testing.T) {
	store, err := NewFSStore(context.Background(), t.TempDir())
	require.NoError(t, err)

	_, err = store.Read(context.Background(), "no-such-path")
	assert.ErrorIs(t, err, content.ErrContentNotFound)
}

func TestFSStore_PutOverwrites(t *testing.T) {
	store, err := NewFSStore(context.Background(), t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "thumb_250", []byte("v1")))
	require.NoError(t, store.Put(ctx, "thumb_250", []byte("v2")))

	got, err := store.Read(ctx, "thumb_250")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

func TestDerivedPath(t *testing.T) {
	assert.Equal(t, "abc_100", content.DerivedPath("abc", 100))
	assert.Equal(t, "abc_500", content.DerivedPath("abc", 500))
}
