package inbox

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("event not found")

// Reader provides read access to stored events
type Reader interface {
	Get(ctx context.Context, id string) (Event, error)
}

// Writer provides write operations for events
type Writer interface {
	/* Enqueue stores the events and appends each one to its consumer stream
	 * in one transaction. Events whose DedupKey was seen within dedupTTL are
	 * left out; the number actually enqueued is returned.
	 */
	Enqueue(ctx context.Context, events []Event, dedupTTL time.Duration) (int, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	/* Requeue records a failed attempt and acknowledges the previous stream
	 * entry. The event is due again after delay; a delay <= 0 puts it back at
	 * the end of its consumer stream right away.
	 */
	Requeue(ctx context.Context, event Event, lastError string, delay time.Duration) error
	/* Finish sets a terminal status, acknowledges the stream entry and
	 * expires the event after ttl
	 */
	Finish(ctx context.Context, event Event, status Status, lastError string, ttl time.Duration) error
}

// StreamConsumer reads events from a consumer stream
type StreamConsumer interface {
	/* Consume blocks for up to block waiting for new events of consumerID
	 * Returns an empty slice when nothing arrived
	 */
	Consume(ctx context.Context, consumerID string, block time.Duration) ([]Event, error)
	/* Recover returns events read earlier but never finished, e.g. by a
	 * worker that stopped mid-delivery
	 */
	Recover(ctx context.Context, consumerID string) ([]Event, error)
	// PromoteDue appends retries due at now to the stream, returning how many
	PromoteDue(ctx context.Context, consumerID string, now time.Time) (int, error)
}

type Repository interface {
	Reader
	Writer
	StreamConsumer
	Close(ctx context.Context) error
}
