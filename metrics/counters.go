package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Routing outcomes of a single change notification
const (
	OutcomeRouted     = "routed"
	OutcomeSkipped    = "skipped"
	OutcomeSuppressed = "suppressed"
	OutcomeFailed     = "failed"
)

/* Counters records routing and delivery outcomes
 * A nil *Counters is valid and records nothing
 */
type Counters struct {
	notifications metric.Int64Counter
	deliveries    metric.Int64Counter
}

func NewCounters(meter metric.Meter) (*Counters, error) {
	notifications, err := meter.Int64Counter(
		"teams.notifications",
		metric.WithDescription("Change notifications by routing outcome"),
		metric.WithUnit("{notifications}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating notifications counter: %w", err)
	}

	deliveries, err := meter.Int64Counter(
		"inbox.deliveries",
		metric.WithDescription("Delivery attempts to consumers by resulting status"),
		metric.WithUnit("{attempts}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating deliveries counter: %w", err)
	}

	return &Counters{notifications: notifications, deliveries: deliveries}, nil
}

func (c *Counters) Notification(ctx context.Context, outcome string) {
	if c == nil {
		return
	}
	c.notifications.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (c *Counters) Delivery(ctx context.Context, consumerID, status string) {
	if c == nil {
		return
	}
	c.deliveries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("consumer.id", consumerID),
		attribute.String("event.status", status),
	))
}
