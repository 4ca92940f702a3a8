// Package worker consumes the background job queues: thumbnail derivation
// for image uploads and welcome notifications for new accounts.
//
// Delivery is at-least-once and possibly concurrent, so every handler here
// is idempotent: re-deriving the same thumbnails overwrites the same derived
// paths with the same bytes, and a repeated welcome line is harmless.
//
// Failure policy: a permanent failure (malformed job, missing file or user)
// acks the job: it can never succeed, so redelivery would only burn
// attempts. A transient failure (store I/O, decode of bytes that may still
// be in flight) nacks for redelivery and the queue's attempt limit caps the
// retries. A failed job never crashes the consumer and is never surfaced to
// the original uploader.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/cabinetfs/cabinet/internal/logger"
	"github.com/cabinetfs/cabinet/pkg/queue"
	"github.com/cabinetfs/cabinet/pkg/store/content"
	"github.com/cabinetfs/cabinet/pkg/store/metadata"
	"github.com/cabinetfs/cabinet/pkg/thumbnail"
)

// errPermanent wraps failures that redelivery cannot fix.
var errPermanent = errors.New("permanent job failure")

// permanent marks err as not worth retrying.
func permanent(err error) error {
	return fmt.Errorf("%w: %w", errPermanent, err)
}

// Worker runs the queue consumers.
type Worker struct {
	store       metadata.Store
	content     content.Store
	queue       queue.Queue
	concurrency int
}

// New creates a worker. concurrency is the number of consumer goroutines
// per topic; values below 1 read as 1.
func New(store metadata.Store, contentStore content.Store, q queue.Queue, concurrency int) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		store:       store,
		content:     contentStore,
		queue:       q,
		concurrency: concurrency,
	}
}

// Run consumes both topics until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			w.consume(ctx, TopicThumbnails, w.processThumbnail)
		}()
		go func() {
			defer wg.Done()
			w.consume(ctx, TopicWelcome, w.processWelcome)
		}()
	}
	wg.Wait()
}

// consume pulls jobs from one topic and dispatches them to handle.
func (w *Worker) consume(ctx context.Context, topic string, handle func(context.Context, []byte) error) {
	for {
		delivery, err := w.queue.Dequeue(ctx, topic)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			logger.Error("worker: dequeue on %q: %v", topic, err)
			continue
		}

		err = handle(ctx, delivery.Payload)
		switch {
		case err == nil:
			if err := delivery.Ack(); err != nil {
				logger.Error("worker: ack on %q: %v", topic, err)
			}
		case errors.Is(err, errPermanent):
			logger.Warn("worker: dropping job on %q: %v", topic, err)
			if err := delivery.Ack(); err != nil {
				logger.Error("worker: ack on %q: %v", topic, err)
			}
		default:
			logger.Warn("worker: job on %q failed (attempt %d): %v", topic, delivery.Attempt, err)
			if err := delivery.Nack(); err != nil {
				logger.Error("worker: nack on %q: %v", topic, err)
			}
		}
	}
}

// processThumbnail derives the three thumbnail widths for one image.
//
// Each width is attempted independently; one failed width does not stop the
// others. Any failure nacks the whole job, and the redelivery re-derives
// all widths. That is wasteful for the ones that succeeded, but harmless, and it
// keeps the queue record trivially simple.
func (w *Worker) processThumbnail(ctx context.Context, payload []byte) error {
	var job ThumbnailJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return permanent(fmt.Errorf("malformed thumbnail job: %w", err))
	}
	if job.FileID == uuid.Nil {
		return permanent(errors.New("thumbnail job: missing fileId"))
	}
	if job.UserID == uuid.Nil {
		return permanent(errors.New("thumbnail job: missing userId"))
	}

	entry, err := w.store.EntryOwnedBy(ctx, job.UserID, job.FileID)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return permanent(fmt.Errorf("thumbnail job: file %s not found", job.FileID))
		}
		return fmt.Errorf("thumbnail job: entry lookup: %w", err)
	}

	original, err := w.content.Read(ctx, entry.ContentPath)
	if err != nil {
		return fmt.Errorf("thumbnail job: read original: %w", err)
	}

	var failures []error
	for _, width := range thumbnail.Widths {
		data, err := thumbnail.Generate(original, width)
		if err != nil {
			failures = append(failures, fmt.Errorf("width %d: %w", width, err))
			continue
		}
		if err := w.content.Put(ctx, content.DerivedPath(entry.ContentPath, width), data); err != nil {
			failures = append(failures, fmt.Errorf("width %d: %w", width, err))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("thumbnail job for %s: %w", job.FileID, errors.Join(failures...))
	}

	logger.Debug("derived thumbnails for entry %s", entry.ID)
	return nil
}

// processWelcome emits the welcome notification for a new account.
func (w *Worker) processWelcome(ctx context.Context, payload []byte) error {
	var job WelcomeJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return permanent(fmt.Errorf("malformed welcome job: %w", err))
	}
	if job.UserID == uuid.Nil {
		return permanent(errors.New("welcome job: missing userId"))
	}

	user, err := w.store.UserByID(ctx, job.UserID)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return permanent(fmt.Errorf("welcome job: user %s not found", job.UserID))
		}
		return fmt.Errorf("welcome job: user lookup: %w", err)
	}

	logger.Info("Welcome %s", user.Email)
	return nil
}
