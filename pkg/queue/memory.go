package queue

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryQueue implements Queue in process memory.
//
// Jobs live in per-topic FIFO slices. Dequeue polls under the mutex; Nack
// re-appends at the tail (redelivery order is not guaranteed, matching the
// contract). Used by tests and single-process deployments.
type MemoryQueue struct {
	mu     sync.Mutex
	topics map[string][]memoryJob
	opts   Options
	closed bool
}

type memoryJob struct {
	payload []byte
	attempt int
}

// NewMemoryQueue creates an empty in-memory queue.
func NewMemoryQueue(opts Options) *MemoryQueue {
	return &MemoryQueue{
		topics: make(map[string][]memoryJob),
		opts:   opts.withDefaults(),
	}
}

// Enqueue implements Queue.
func (q *MemoryQueue) Enqueue(_ context.Context, topic string, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return errors.New("queue is closed")
	}
	job := memoryJob{payload: append([]byte(nil), payload...), attempt: 0}
	q.topics[topic] = append(q.topics[topic], job)
	return nil
}

// Dequeue implements Queue.
func (q *MemoryQueue) Dequeue(ctx context.Context, topic string) (*Delivery, error) {
	ticker := time.NewTicker(q.opts.PollInterval)
	defer ticker.Stop()

	for {
		if delivery, ok := q.tryDequeue(topic); ok {
			return delivery, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// tryDequeue pops the head of the topic, if any.
func (q *MemoryQueue) tryDequeue(topic string) (*Delivery, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	jobs := q.topics[topic]
	if len(jobs) == 0 {
		return nil, false
	}
	job := jobs[0]
	q.topics[topic] = jobs[1:]
	job.attempt++

	delivery := &Delivery{
		Payload: job.payload,
		Attempt: job.attempt,
		ack:     func() error { return nil },
		nack: func() error {
			return q.requeue(topic, job)
		},
	}
	return delivery, true
}

// requeue returns a nacked job to the tail, dropping it once the attempt
// limit is reached.
func (q *MemoryQueue) requeue(topic string, job memoryJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if job.attempt >= q.opts.MaxAttempts {
		return nil
	}
	q.topics[topic] = append(q.topics[topic], job)
	return nil
}

// Close implements Queue.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}
