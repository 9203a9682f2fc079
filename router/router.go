// Package router turns Graph change notifications into consumer deliveries.
package router

import (
	"context"
	"fmt"

	"github.com/marcelsud/teams-inbox/consumer"
	"github.com/marcelsud/teams-inbox/inbox/payload"
	"github.com/marcelsud/teams-inbox/metrics"
	"github.com/marcelsud/teams-inbox/notification"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type MessageFetcher interface {
	GetMessage(ctx context.Context, accessToken, resource string) (map[string]any, error)
}

type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Deliverer hands a hydrated message to the matched consumers
type Deliverer interface {
	Deliver(ctx context.Context, consumers []consumer.Registration, msg notification.HydratedMessage) (int, error)
}

type Router struct {
	registry  consumer.Registry
	fetcher   MessageFetcher
	tokens    TokenSource
	deliverer Deliverer
	counters  *metrics.Counters
	tracer    trace.Tracer
	logger    zerolog.Logger
}

type Option func(*Router)

func WithLogger(logger zerolog.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

func WithCounters(counters *metrics.Counters) Option {
	return func(r *Router) { r.counters = counters }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(r *Router) { r.tracer = tracer }
}

func NewRouter(registry consumer.Registry, fetcher MessageFetcher, tokens TokenSource, deliverer Deliverer, opts ...Option) *Router {
	r := &Router{
		registry:  registry,
		fetcher:   fetcher,
		tokens:    tokens,
		deliverer: deliverer,
		tracer:    otel.Tracer("teams-inbox/router"),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route processes a batch in order. A failing notification is logged and
// counted; the rest of the batch is still processed.
func (r *Router) Route(ctx context.Context, notifications []notification.Notification) {
	for _, n := range notifications {
		outcome := r.route(ctx, n)
		r.counters.Notification(ctx, outcome)
	}
}

func (r *Router) route(ctx context.Context, n notification.Notification) string {
	ctx, span := r.tracer.Start(ctx, "teams.notification.route",
		trace.WithAttributes(
			attribute.String("teams.resource", n.Resource),
			attribute.String("teams.change_type", string(n.ChangeType)),
		),
	)
	defer span.End()

	log := r.logger.With().
		Str("resource", n.Resource).
		Str("change_type", string(n.ChangeType)).
		Logger()

	outcome, err := r.dispatch(ctx, n, log)
	span.SetAttributes(attribute.String("teams.route.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error().Err(err).Msg("failed to route notification")
	}
	return outcome
}

func (r *Router) dispatch(ctx context.Context, n notification.Notification, log zerolog.Logger) (string, error) {
	if !notification.IsMessageResource(n.Resource) {
		log.Debug().Msg("not a message resource, skipping")
		return metrics.OutcomeSkipped, nil
	}

	path, err := notification.ParseResource(n.Resource)
	if err != nil {
		log.Warn().Err(err).Msg("unrecognised message resource, skipping")
		return metrics.OutcomeSkipped, nil
	}

	eventType := payload.MessageEventType(string(n.ChangeType))
	matched, err := r.match(ctx, path, eventType)
	if err != nil {
		return metrics.OutcomeFailed, err
	}
	if len(matched) == 0 {
		log.Debug().Str("team_id", path.TeamID).Str("channel_id", path.ChannelID).Msg("no consumer for channel")
		return metrics.OutcomeSkipped, nil
	}

	accessToken, err := r.tokens.AccessToken(ctx)
	if err != nil {
		return metrics.OutcomeFailed, fmt.Errorf("getting access token: %w", err)
	}
	message, err := r.fetcher.GetMessage(ctx, accessToken, n.Resource)
	if err != nil {
		return metrics.OutcomeFailed, fmt.Errorf("fetching message: %w", err)
	}

	hydrated := notification.HydratedMessage{
		Resource:   n.Resource,
		ChangeType: n.ChangeType,
		Message:    message,
	}
	if hydrated.IsSystemEvent() {
		log.Debug().Msg("system event message suppressed")
		return metrics.OutcomeSuppressed, nil
	}

	enqueued, err := r.deliverer.Deliver(ctx, matched, hydrated)
	if err != nil {
		return metrics.OutcomeFailed, fmt.Errorf("delivering message: %w", err)
	}

	log.Info().
		Int("consumers", len(matched)).
		Int("enqueued", enqueued).
		Msg("notification routed")
	return metrics.OutcomeRouted, nil
}

// match returns the message consumers registered for the team/channel that accept eventType
func (r *Router) match(ctx context.Context, path notification.ResourcePath, eventType string) ([]consumer.Registration, error) {
	registrations, err := r.registry.List(ctx, consumer.KindMessages)
	if err != nil {
		return nil, fmt.Errorf("listing consumers: %w", err)
	}

	var matched []consumer.Registration
	for _, reg := range registrations {
		if reg.Matches(path.TeamID, path.ChannelID) && reg.WantsEvent(eventType) {
			matched = append(matched, reg)
		}
	}
	return matched, nil
}
