package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBadgerQueue(t *testing.T, opts Options) *BadgerQueue {
	t.Helper()

	q, err := NewBadgerQueue(context.Background(), BadgerQueueConfig{InMemory: true}, opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, q.Close())
	})
	return q
}

func TestBadgerQueue_EnqueueDequeueAck(t *testing.T) {
	q := newTestBadgerQueue(t, testOptions())
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, "thumbnails", []byte("first")))
	require.NoError(t, q.Enqueue(ctx, "thumbnails", []byte("second")))

	d, err := q.Dequeue(ctx, "thumbnails")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), d.Payload)
	assert.Equal(t, 1, d.Attempt)
	require.NoError(t, d.Ack())

	d, err = q.Dequeue(ctx, "thumbnails")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), d.Payload)
	require.NoError(t, d.Ack())

	// Both acked, nothing left
	shortCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	_, err = q.Dequeue(shortCtx, "thumbnails")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBadgerQueue_LeaseHidesInFlightJobs(t *testing.T) {
	q := newTestBadgerQueue(t, testOptions())
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, "thumbnails", []byte("only")))

	d, err := q.Dequeue(ctx, "thumbnails")
	require.NoError(t, err)

	// While the lease is held the job is invisible to other consumers
	shortCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	_, err = q.Dequeue(shortCtx, "thumbnails")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, d.Ack())
}

func TestBadgerQueue_ExpiredLeaseRedelivers(t *testing.T) {
	opts := testOptions()
	opts.LeaseDuration = 20 * time.Millisecond
	q := newTestBadgerQueue(t, opts)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, "thumbnails", []byte("abandoned")))

	// Dequeue and never ack, simulating a consumer crash
	_, err := q.Dequeue(ctx, "thumbnails")
	require.NoError(t, err)

	d, err := q.Dequeue(ctx, "thumbnails")
	require.NoError(t, err)
	assert.Equal(t, []byte("abandoned"), d.Payload)
	assert.Equal(t, 2, d.Attempt)
	require.NoError(t, d.Ack())
}

func TestBadgerQueue_NackRedelivers(t *testing.T) {
	q := newTestBadgerQueue(t, testOptions())
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, "welcome", []byte("retry-me")))

	d, err := q.Dequeue(ctx, "welcome")
	require.NoError(t, err)
	require.NoError(t, d.Nack())

	d, err = q.Dequeue(ctx, "welcome")
	require.NoError(t, err)
	assert.Equal(t, []byte("retry-me"), d.Payload)
	assert.Equal(t, 2, d.Attempt)
	require.NoError(t, d.Ack())
}

func TestBadgerQueue_MaxAttemptsDropsJob(t *testing.T) {
	q := newTestBadgerQueue(t, testOptions())
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, "thumbnails", []byte("doomed")))

	for attempt := 1; attempt <= 3; attempt++ {
		d, err := q.Dequeue(ctx, "thumbnails")
		require.NoError(t, err)
		assert.Equal(t, attempt, d.Attempt)
		require.NoError(t, d.Nack())
	}

	shortCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	_, err := q.Dequeue(shortCtx, "thumbnails")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBadgerQueue_Persistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	q, err := NewBadgerQueue(ctx, BadgerQueueConfig{Dir: dir}, testOptions())
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(ctx, "thumbnails", []byte("survives")))
	require.NoError(t, q.Close())

	reopened, err := NewBadgerQueue(ctx, BadgerQueueConfig{Dir: dir}, testOptions())
	require.NoError(t, err)
	defer reopened.Close()

	d, err := reopened.Dequeue(ctx, "thumbnails")
	require.NoError(t, err)
	assert.Equal(t, []byte("survives"), d.Payload)
	require.NoError(t, d.Ack())
}
