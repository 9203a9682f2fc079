package inbox

import "time"

/* Event is one delivery of a hydrated message to one consumer
 * Uses value semantics as it represents data, not behavior
 */
type Event struct {
	ID         string
	ConsumerID string
	Type       string // teams.message.<changeType>
	Resource   string
	DedupKey   string // empty disables redelivery suppression
	Payload    []byte
	Status     Status
	RetryCount int
	MaxRetries int
	LastError  string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// NextRetryAt is when a retrying event becomes due again, zero before the first failure
	NextRetryAt time.Time

	// StreamID is the position of the event in its consumer stream, set by Consume
	StreamID string
}

// Backoff of failed deliveries: the first retry waits RetryBaseDelay and every
// further one twice as long, up to RetryMaxDelay
const (
	RetryBaseDelay = time.Second
	RetryMaxDelay  = 5 * time.Minute
)

// RetryDelay is how long an event that already failed retried times waits
// before its next attempt
func RetryDelay(retried int) time.Duration {
	if retried < 0 {
		retried = 0
	}
	if retried >= 20 {
		return RetryMaxDelay
	}
	return min(RetryBaseDelay<<retried, RetryMaxDelay)
}

// Exhausted reports whether another failure must be final
func (e Event) Exhausted() bool {
	return e.RetryCount >= e.MaxRetries
}
