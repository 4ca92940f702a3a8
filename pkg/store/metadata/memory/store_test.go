package memory

import (
	"context"
	"testing"

	"github.com/cabinetfs/cabinet/pkg/store/metadata"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Users(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	user := &metadata.User{
		ID:           uuid.New(),
		Email:        "bob@dylan.com",
		PasswordHash: []byte("hash"),
	}
	require.NoError(t, store.CreateUser(ctx, user))

	t.Run("lookup_by_email", func(t *testing.T) {
		got, err := store.UserByEmail(ctx, "bob@dylan.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("email_lookup_is_case_insensitive", func(t *testing.T) {
		got, err := store.UserByEmail(ctx, "BOB@Dylan.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("lookup_by_id", func(t *testing.T) {
		got, err := store.UserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "bob@dylan.com", got.Email)
	})

	t.Run("duplicate_email_rejected", func(t *testing.T) {
		dup := &metadata.User{ID: uuid.New(), Email: "Bob@Dylan.com", PasswordHash: []byte("x")}
		err := store.CreateUser(ctx, dup)
		assert.ErrorIs(t, err, metadata.ErrDuplicateEmail)
	})

	t.Run("unknown_user_not_found", func(t *testing.T) {
		_, err := store.UserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, metadata.ErrNotFound)

		_, err = store.UserByID(ctx, uuid.New())
		assert.ErrorIs(t, err, metadata.ErrNotFound)
	})

	t.Run("count", func(t *testing.T) {
		n, err := store.CountUsers(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestMemoryStore_Entries(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	owner := uuid.New()

	folder := &metadata.FileEntry{
		ID:     uuid.New(),
		UserID: owner,
		Name:   "documents",
		Type:   metadata.EntryTypeFolder,
		Parent: metadata.RootParent(),
	}
	require.NoError(t, store.CreateEntry(ctx, folder))

	file := &metadata.FileEntry{
		ID:          uuid.New(),
		UserID:      owner,
		Name:        "notes.txt",
		Type:        metadata.EntryTypeFile,
		Parent:      metadata.ParentOf(folder.ID),
		ContentPath: "abc",
	}
	require.NoError(t, store.CreateEntry(ctx, file))

	t.Run("entry_by_id", func(t *testing.T) {
		got, err := store.EntryByID(ctx, folder.ID)
		require.NoError(t, err)
		assert.Equal(t, "documents", got.Name)
	})

	t.Run("owned_lookup_enforces_owner", func(t *testing.T) {
		_, err := store.EntryOwnedBy(ctx, uuid.New(), file.ID)
		assert.ErrorIs(t, err, metadata.ErrNotFound)

		got, err := store.EntryOwnedBy(ctx, owner, file.ID)
		require.NoError(t, err)
		assert.Equal(t, file.ID, got.ID)
	})

	t.Run("listing_scoped_by_parent", func(t *testing.T) {
		root, err := store.ListEntries(ctx, owner, metadata.RootParent(), 0, metadata.PageSize)
		require.NoError(t, err)
		require.Len(t, root, 1)
		assert.Equal(t, folder.ID, root[0].ID)

		inFolder, err := store.ListEntries(ctx, owner, metadata.ParentOf(folder.ID), 0, metadata.PageSize)
		require.NoError(t, err)
		require.Len(t, inFolder, 1)
		assert.Equal(t, file.ID, inFolder[0].ID)
	})

	t.Run("listing_scoped_by_owner", func(t *testing.T) {
		entries, err := store.ListEntries(ctx, uuid.New(), metadata.RootParent(), 0, metadata.PageSize)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("set_visibility", func(t *testing.T) {
		updated, err := store.SetEntryVisibility(ctx, owner, file.ID, true)
		require.NoError(t, err)
		assert.True(t, updated.IsPublic)

		// Idempotent
		updated, err = store.SetEntryVisibility(ctx, owner, file.ID, true)
		require.NoError(t, err)
		assert.True(t, updated.IsPublic)

		_, err = store.SetEntryVisibility(ctx, uuid.New(), file.ID, false)
		assert.ErrorIs(t, err, metadata.ErrNotFound)
	})

	t.Run("count", func(t *testing.T) {
		n, err := store.CountEntries(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	owner := uuid.New()

	entry := &metadata.FileEntry{
		ID:     uuid.New(),
		UserID: owner,
		Name:   "image.png",
		Type:   metadata.EntryTypeImage,
		Parent: metadata.RootParent(),
	}
	require.NoError(t, store.CreateEntry(ctx, entry))

	got, err := store.EntryByID(ctx, entry.ID)
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := store.EntryByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "image.png", again.Name)
}

func TestMemoryStore_Ping(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Ping(context.Background()))

	require.NoError(t, store.Close())
	assert.Error(t, store.Ping(context.Background()))
}
