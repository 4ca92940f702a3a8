// Package queue implements the job queue between the request path and the
// background workers.
//
// Delivery contract: at-least-once, possibly concurrent, no ordering
// guarantee across jobs. A dequeued job is leased to its consumer; Ack
// removes it, Nack (or an expired lease, for the persistent implementation)
// returns it to the queue with its attempt count incremented. Jobs that
// exhaust MaxAttempts are dropped. Consumers must therefore be idempotent;
// re-deriving the same thumbnails from the same source is, which is what
// makes at-least-once safe here.
package queue

import (
	"context"
	"time"
)

// Default tuning values, overridable through Options.
const (
	DefaultPollInterval  = 100 * time.Millisecond
	DefaultLeaseDuration = time.Minute
	DefaultMaxAttempts   = 3
)

// Options tunes queue behavior. The zero value selects the defaults.
type Options struct {
	// PollInterval is how often a blocked Dequeue re-checks for work.
	PollInterval time.Duration

	// LeaseDuration is how long a dequeued job stays invisible before it is
	// considered abandoned and redelivered. Only meaningful for persistent
	// implementations; the in-memory queue redelivers only on Nack.
	LeaseDuration time.Duration

	// MaxAttempts is the delivery limit after which a job is dropped.
	MaxAttempts int
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.LeaseDuration <= 0 {
		o.LeaseDuration = DefaultLeaseDuration
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	return o
}

// Queue transports opaque job payloads between producers and consumers,
// partitioned by topic.
type Queue interface {
	// Enqueue appends a job to the topic.
	Enqueue(ctx context.Context, topic string, payload []byte) error

	// Dequeue blocks until a job is available on the topic or ctx is done.
	// The returned delivery must be terminated with Ack or Nack.
	Dequeue(ctx context.Context, topic string) (*Delivery, error)

	// Close releases queue resources.
	Close() error
}

// Delivery is one leased job handed to a consumer.
type Delivery struct {
	// Payload is the job body as enqueued.
	Payload []byte

	// Attempt counts deliveries of this job, starting at 1.
	Attempt int

	ack  func() error
	nack func() error
}

// Ack marks the job as terminally processed and removes it. Call this for
// both success and permanent failure: a job that can never succeed must not
// be redelivered.
func (d *Delivery) Ack() error {
	return d.ack()
}

// Nack returns the job to the queue for another attempt, unless the attempt
// limit is reached, in which case the job is dropped.
func (d *Delivery) Nack() error {
	return d.nack()
}
