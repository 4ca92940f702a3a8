package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// Key schema: "job:<topic>:<seq20>" → jobRecord (JSON). The zero-padded
// sequence keeps iteration in enqueue order, which gives approximate FIFO
// dispatch without promising it.
const (
	jobPrefix        = "job:"
	jobSequenceKey   = "seq:jobs"
	jobSequenceSlack = 128
)

// BadgerQueueConfig contains configuration for the persistent queue.
type BadgerQueueConfig struct {
	// Dir is the directory for the queue database. Only one process may
	// open it at a time, so either the server runs its workers in-process
	// (the default) or the standalone worker binary owns this directory
	// exclusively.
	Dir string `mapstructure:"dir"`

	// InMemory runs the queue without touching disk.
	InMemory bool `mapstructure:"in_memory"`
}

// jobRecord is the stored form of a queued job.
type jobRecord struct {
	Payload []byte `json:"payload"`
	// Attempts counts deliveries so far.
	Attempts int `json:"attempts"`
	// LeaseUntil is the unix-nano instant until which the job is invisible
	// to Dequeue. Zero means available.
	LeaseUntil int64 `json:"lease_until"`
}

// BadgerQueue implements Queue on BadgerDB.
//
// A dequeued job is not removed: it stays in place with a lease timestamp,
// so a consumer crash redelivers it after the lease expires. That is the
// at-least-once half of the contract; the drop-after-MaxAttempts half keeps
// a poisonous job from cycling forever.
type BadgerQueue struct {
	db   *badger.DB
	seq  *badger.Sequence
	opts Options
}

// NewBadgerQueue opens (or creates) the queue database.
func NewBadgerQueue(ctx context.Context, cfg BadgerQueueConfig, opts Options) (*BadgerQueue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, fmt.Errorf("badger queue: dir is required")
	}

	badgerOpts := badger.DefaultOptions(cfg.Dir).
		WithInMemory(cfg.InMemory).
		WithLogger(nil)
	if cfg.InMemory {
		badgerOpts = badgerOpts.WithDir("").WithValueDir("")
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open queue database: %w", err)
	}
	seq, err := db.GetSequence([]byte(jobSequenceKey), jobSequenceSlack)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open job sequence: %w", err)
	}

	return &BadgerQueue{db: db, seq: seq, opts: opts.withDefaults()}, nil
}

// Enqueue implements Queue.
func (q *BadgerQueue) Enqueue(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	seq, err := q.seq.Next()
	if err != nil {
		return fmt.Errorf("failed to advance job sequence: %w", err)
	}
	value, err := json.Marshal(jobRecord{Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	err = q.db.Update(func(txn *badger.Txn) error {
		return txn.Set(jobKey(topic, seq), value)
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

// Dequeue implements Queue.
func (q *BadgerQueue) Dequeue(ctx context.Context, topic string) (*Delivery, error) {
	ticker := time.NewTicker(q.opts.PollInterval)
	defer ticker.Stop()

	for {
		delivery, ok, err := q.tryDequeue(topic)
		if err != nil {
			return nil, err
		}
		if ok {
			return delivery, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// tryDequeue leases the first available job under the topic, if any.
// Concurrent consumers racing for the same job are serialized by badger's
// transaction conflict detection: the loser retries on the next poll.
func (q *BadgerQueue) tryDequeue(topic string) (*Delivery, bool, error) {
	var (
		key    []byte
		record jobRecord
	)
	now := time.Now()

	err := q.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = topicPrefix(topic)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var candidate jobRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &candidate)
			}); err != nil {
				return err
			}
			if candidate.LeaseUntil > now.UnixNano() {
				continue
			}

			candidate.Attempts++
			candidate.LeaseUntil = now.Add(q.opts.LeaseDuration).UnixNano()
			value, err := json.Marshal(candidate)
			if err != nil {
				return err
			}
			key = item.KeyCopy(nil)
			if err := txn.Set(key, value); err != nil {
				return err
			}
			record = candidate
			return nil
		}
		return badger.ErrKeyNotFound
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) || errors.Is(err, badger.ErrConflict) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to dequeue job: %w", err)
	}

	delivery := &Delivery{
		Payload: record.Payload,
		Attempt: record.Attempts,
		ack: func() error {
			return q.remove(key)
		},
		nack: func() error {
			return q.release(key, record.Attempts)
		},
	}
	return delivery, true, nil
}

// remove deletes a completed job.
func (q *BadgerQueue) remove(key []byte) error {
	err := q.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("failed to ack job: %w", err)
	}
	return nil
}

// release makes a nacked job available again, or drops it at the attempt
// limit.
func (q *BadgerQueue) release(key []byte, attempts int) error {
	if attempts >= q.opts.MaxAttempts {
		return q.remove(key)
	}
	err := q.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		var record jobRecord
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		}); err != nil {
			return err
		}
		record.LeaseUntil = 0
		value, err := json.Marshal(record)
		if err != nil {
			return err
		}
		return txn.Set(key, value)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return fmt.Errorf("failed to nack job: %w", err)
	}
	return nil
}

// Close releases the job sequence and closes the database.
func (q *BadgerQueue) Close() error {
	if err := q.seq.Release(); err != nil {
		q.db.Close()
		return fmt.Errorf("failed to release job sequence: %w", err)
	}
	return q.db.Close()
}

func topicPrefix(topic string) []byte {
	return []byte(jobPrefix + topic + ":")
}

func jobKey(topic string, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", jobPrefix, topic, seq))
}
