package inbox

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marcelsud/teams-inbox/consumer"
	"github.com/marcelsud/teams-inbox/inbox/payload"
	"github.com/marcelsud/teams-inbox/notification"
)

// DedupWindow is how long a delivered message version is remembered per consumer
const DedupWindow = 24 * time.Hour

/* Service fans hydrated messages out to consumer inboxes
 * Uses pointer semantics as it's an API, not data
 */

// UseCase defines the inbox operations used by the router and the delivery workers
type UseCase interface {
	Deliver(ctx context.Context, consumers []consumer.Registration, msg notification.HydratedMessage) (int, error)
	Start(ctx context.Context, event Event) error
	Complete(ctx context.Context, event Event, ttl time.Duration) error
	Fail(ctx context.Context, event Event, lastError string, retryable bool, failedTTL time.Duration) (Status, error)
}

type Service struct {
	Repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		Repo: repo,
		now:  time.Now,
	}
}

// Deliver enqueues msg once for every consumer, all or nothing.
// Consumers that already received this version of the message are skipped.
func (s *Service) Deliver(ctx context.Context, consumers []consumer.Registration, msg notification.HydratedMessage) (int, error) {
	if len(consumers) == 0 {
		return 0, nil
	}

	eventType := payload.MessageEventType(string(msg.ChangeType))
	now := s.now()
	p, err := payload.New(eventType, msg.Body(), now)
	if err != nil {
		return 0, fmt.Errorf("building payload: %w", err)
	}
	body, err := p.Bytes()
	if err != nil {
		return 0, fmt.Errorf("encoding payload: %w", err)
	}

	events := make([]Event, 0, len(consumers))
	for _, c := range consumers {
		events = append(events, Event{
			ID:         newEventID(),
			ConsumerID: c.ID,
			Type:       eventType,
			Resource:   msg.Resource,
			DedupKey:   DedupKey(c.ID, msg),
			Payload:    body,
			Status:     Pending,
			MaxRetries: c.MaxRetries,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	n, err := s.Repo.Enqueue(ctx, events, DedupWindow)
	if err != nil {
		return 0, fmt.Errorf("enqueuing events: %w", err)
	}
	return n, nil
}

// Start marks an attempt in progress
func (s *Service) Start(ctx context.Context, event Event) error {
	if err := s.Repo.UpdateStatus(ctx, event.ID, Delivering); err != nil {
		return fmt.Errorf("starting delivery: %w", err)
	}
	return nil
}

// Complete marks a successful delivery
func (s *Service) Complete(ctx context.Context, event Event, ttl time.Duration) error {
	if err := s.Repo.Finish(ctx, event, Delivered, "", ttl); err != nil {
		return fmt.Errorf("completing event: %w", err)
	}
	return nil
}

// Fail records a failed attempt. The event is requeued with an exponential
// delay while retries remain, otherwise it is marked failed. The resulting
// status is returned.
func (s *Service) Fail(ctx context.Context, event Event, lastError string, retryable bool, failedTTL time.Duration) (Status, error) {
	if retryable && !event.Exhausted() {
		if err := s.Repo.Requeue(ctx, event, lastError, RetryDelay(event.RetryCount)); err != nil {
			return "", fmt.Errorf("requeuing event: %w", err)
		}
		return Retrying, nil
	}
	if err := s.Repo.Finish(ctx, event, Failed, lastError, failedTTL); err != nil {
		return "", fmt.Errorf("failing event: %w", err)
	}
	return Failed, nil
}

// DedupKey identifies one version of one message for one consumer. Graph
// redelivers notifications it considers unacknowledged; the etag changes on
// every edit so updates still get through. Empty when the message has no version.
func DedupKey(consumerID string, msg notification.HydratedMessage) string {
	version := msg.ETag()
	if version == "" {
		version, _ = msg.Message["lastModifiedDateTime"].(string)
	}
	if version == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(strings.Join([]string{consumerID, msg.Resource, string(msg.ChangeType), version}, "\x00")))
	return hex.EncodeToString(sum[:16])
}

// Standard Webhooks ids must not contain '.'
func newEventID() string {
	return "evt_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}
