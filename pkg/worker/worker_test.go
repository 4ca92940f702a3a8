package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/cabinetfs/cabinet/pkg/queue"
	"github.com/cabinetfs/cabinet/pkg/store/content"
	contentMemory "github.com/cabinetfs/cabinet/pkg/store/content/memory"
	"github.com/cabinetfs/cabinet/pkg/store/metadata"
	metadataMemory "github.com/cabinetfs/cabinet/pkg/store/metadata/memory"
	"github.com/cabinetfs/cabinet/pkg/thumbnail"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 600, 400))
	for y := 0; y < 400; y++ {
		for x := 0; x < 600; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type workerFixture struct {
	worker  *Worker
	store   *metadataMemory.MemoryStore
	content *contentMemory.MemoryStore
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()

	store := metadataMemory.NewMemoryStore()
	contentStore := contentMemory.NewMemoryStore()
	q := queue.NewMemoryQueue(queue.Options{PollInterval: 5 * time.Millisecond})
	return &workerFixture{
		worker:  New(store, contentStore, q, 1),
		store:   store,
		content: contentStore,
	}
}

// seedImage stores an image entry with real PNG content and returns it.
func (f *workerFixture) seedImage(t *testing.T, owner uuid.UUID) *metadata.FileEntry {
	t.Helper()
	ctx := context.Background()

	path, err := f.content.Write(ctx, pngBytes(t))
	require.NoError(t, err)

	entry := &metadata.FileEntry{
		ID:          uuid.New(),
		UserID:      owner,
		Name:        "photo.png",
		Type:        metadata.EntryTypeImage,
		Parent:      metadata.RootParent(),
		ContentPath: path,
	}
	require.NoError(t, f.store.CreateEntry(ctx, entry))
	return entry
}

func marshalJob(t *testing.T, job any) []byte {
	t.Helper()

	payload, err := json.Marshal(job)
	require.NoError(t, err)
	return payload
}

func TestProcessThumbnail(t *testing.T) {
	f := newWorkerFixture(t)
	owner := uuid.New()
	entry := f.seedImage(t, owner)
	ctx := context.Background()

	payload := marshalJob(t, ThumbnailJob{FileID: entry.ID, UserID: owner})
	require.NoError(t, f.worker.processThumbnail(ctx, payload))

	// All three widths derived next to the original
	for _, width := range thumbnail.Widths {
		data, err := f.content.Read(ctx, content.DerivedPath(entry.ContentPath, width))
		require.NoError(t, err)

		img, _, err := image.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, width, img.Bounds().Dx())
	}
}

func TestProcessThumbnail_Idempotent(t *testing.T) {
	f := newWorkerFixture(t)
	owner := uuid.New()
	entry := f.seedImage(t, owner)
	ctx := context.Background()

	payload := marshalJob(t, ThumbnailJob{FileID: entry.ID, UserID: owner})
	require.NoError(t, f.worker.processThumbnail(ctx, payload))
	first, err := f.content.Read(ctx, content.DerivedPath(entry.ContentPath, 100))
	require.NoError(t, err)

	// Redelivery re-derives the same bytes
	require.NoError(t, f.worker.processThumbnail(ctx, payload))
	second, err := f.content.Read(ctx, content.DerivedPath(entry.ContentPath, 100))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestProcessThumbnail_PermanentFailures(t *testing.T) {
	f := newWorkerFixture(t)
	owner := uuid.New()
	entry := f.seedImage(t, owner)
	ctx := context.Background()

	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "malformed_payload", payload: []byte("{not json")},
		{name: "missing_file_id", payload: marshalJob(t, ThumbnailJob{UserID: owner})},
		{name: "missing_user_id", payload: marshalJob(t, ThumbnailJob{FileID: entry.ID})},
		{name: "unknown_file", payload: marshalJob(t, ThumbnailJob{FileID: uuid.New(), UserID: owner})},
		{name: "wrong_owner", payload: marshalJob(t, ThumbnailJob{FileID: entry.ID, UserID: uuid.New()})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.worker.processThumbnail(ctx, tt.payload)
			assert.ErrorIs(t, err, errPermanent)
		})
	}
}

func TestProcessThumbnail_UndecodableImageIsTransient(t *testing.T) {
	f := newWorkerFixture(t)
	owner := uuid.New()
	ctx := context.Background()

	path, err := f.content.Write(ctx, []byte("not an image"))
	require.NoError(t, err)
	entry := &metadata.FileEntry{
		ID:          uuid.New(),
		UserID:      owner,
		Name:        "broken.png",
		Type:        metadata.EntryTypeImage,
		Parent:      metadata.RootParent(),
		ContentPath: path,
	}
	require.NoError(t, f.store.CreateEntry(ctx, entry))

	err = f.worker.processThumbnail(ctx, marshalJob(t, ThumbnailJob{FileID: entry.ID, UserID: owner}))
	require.Error(t, err)
	assert.NotErrorIs(t, err, errPermanent)
}

func TestProcessWelcome(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()

	user := &metadata.User{ID: uuid.New(), Email: "bob@dylan.com", PasswordHash: []byte("h")}
	require.NoError(t, f.store.CreateUser(ctx, user))

	require.NoError(t, f.worker.processWelcome(ctx, marshalJob(t, WelcomeJob{UserID: user.ID})))
}

func TestProcessWelcome_PermanentFailures(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "malformed_payload", payload: []byte("{")},
		{name: "missing_user_id", payload: marshalJob(t, WelcomeJob{})},
		{name: "unknown_user", payload: marshalJob(t, WelcomeJob{UserID: uuid.New()})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.worker.processWelcome(ctx, tt.payload)
			assert.ErrorIs(t, err, errPermanent)
		})
	}
}

func TestRun_ConsumesQueuedJobs(t *testing.T) {
	store := metadataMemory.NewMemoryStore()
	contentStore := contentMemory.NewMemoryStore()
	q := queue.NewMemoryQueue(queue.Options{PollInterval: 5 * time.Millisecond})
	w := New(store, contentStore, q, 2)

	owner := uuid.New()
	f := &workerFixture{worker: w, store: store, content: contentStore}
	entry := f.seedImage(t, owner)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.NoError(t, q.Enqueue(ctx, TopicThumbnails,
		marshalJob(t, ThumbnailJob{FileID: entry.ID, UserID: owner})))

	// Wait for the 100px thumbnail to appear
	deadline := time.After(5 * time.Second)
	for {
		if _, err := contentStore.Read(ctx, content.DerivedPath(entry.ContentPath, 100)); err == nil {
			break
		}
		select {
		case <-deadline:
			t.Fatal("thumbnail was not derived in time")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancellation")
	}
}
