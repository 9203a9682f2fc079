// Package delivery pushes inbox events to consumer endpoints.
package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/marcelsud/teams-inbox/consumer"
	"github.com/marcelsud/teams-inbox/inbox"
	"github.com/marcelsud/teams-inbox/inbox/signature"
	"github.com/marcelsud/teams-inbox/metrics"
	"github.com/marcelsud/teams-inbox/tracing"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBlock        = time.Second
	DefaultDeliveredTTL = time.Hour
	DefaultFailedTTL    = 24 * time.Hour

	errorPause   = time.Second
	maxBodyDrain = 64 << 10
)

// Heartbeater records that the worker of a consumer is alive
type Heartbeater interface {
	SetHeartbeat(ctx context.Context, consumerID, status string) error
}

// Settings shared by every worker of a pool
type Settings struct {
	Block        time.Duration
	DeliveredTTL time.Duration
	FailedTTL    time.Duration
	Client       *http.Client
	Counters     *metrics.Counters
	Logger       zerolog.Logger
}

func (s Settings) withDefaults() Settings {
	if s.Block <= 0 {
		s.Block = DefaultBlock
	}
	if s.DeliveredTTL <= 0 {
		s.DeliveredTTL = DefaultDeliveredTTL
	}
	if s.FailedTTL <= 0 {
		s.FailedTTL = DefaultFailedTTL
	}
	if s.Client == nil {
		s.Client = &http.Client{Timeout: 30 * time.Second}
	}
	return s
}

// StatusError is a non-2xx answer from a consumer endpoint
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("delivery failed with status: %d", e.StatusCode)
}

// Retryable is false for 410 Gone, the consumer asked us to stop
func (e *StatusError) Retryable() bool {
	return e.StatusCode != http.StatusGone
}

/* Worker delivers the events of one consumer, in stream order
 */
type Worker struct {
	consumer consumer.Registration
	inbox    inbox.UseCase
	stream   inbox.StreamConsumer
	beats    Heartbeater
	settings Settings
	tracer   trace.Tracer
	logger   zerolog.Logger
	now      func() time.Time
}

func NewWorker(reg consumer.Registration, uc inbox.UseCase, stream inbox.StreamConsumer, beats Heartbeater, settings Settings) *Worker {
	settings = settings.withDefaults()
	return &Worker{
		consumer: reg,
		inbox:    uc,
		stream:   stream,
		beats:    beats,
		settings: settings,
		tracer:   otel.Tracer("teams-inbox/delivery"),
		logger:   settings.Logger.With().Str("consumer_id", reg.ID).Logger(),
		now:      time.Now,
	}
}

// Run delivers until ctx is cancelled. Events left unfinished by a previous
// run are delivered first.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info().Str("target_url", w.consumer.TargetURL).Msg("delivery worker started")
	defer w.logger.Info().Msg("delivery worker stopped")

	pending, err := w.stream.Recover(ctx, w.consumer.ID)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to recover pending events")
	}
	for _, ev := range pending {
		w.Process(ctx, ev)
	}

	for ctx.Err() == nil {
		if _, err := w.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error().Err(err).Msg("failed to consume events")
			select {
			case <-ctx.Done():
				return
			case <-time.After(errorPause):
			}
		}
	}
}

// Poll moves due retries back into the stream, then reads one batch and
// delivers it, returning the number of events handled
func (w *Worker) Poll(ctx context.Context) (int, error) {
	w.beat(ctx, "idle")
	if n, err := w.stream.PromoteDue(ctx, w.consumer.ID, w.now()); err != nil {
		return 0, err
	} else if n > 0 {
		w.logger.Debug().Int("count", n).Msg("retries due")
	}
	events, err := w.stream.Consume(ctx, w.consumer.ID, w.settings.Block)
	if err != nil {
		return 0, err
	}
	for _, ev := range events {
		w.Process(ctx, ev)
	}
	return len(events), nil
}

// Process makes one delivery attempt and records its outcome
func (w *Worker) Process(ctx context.Context, ev inbox.Event) {
	ctx, span := w.tracer.Start(ctx, "inbox.deliver",
		trace.WithAttributes(
			attribute.String("consumer.id", w.consumer.ID),
			attribute.String("event.id", ev.ID),
			attribute.String("event.type", ev.Type),
			attribute.Int("event.retry_count", ev.RetryCount),
		),
	)
	defer span.End()

	log := w.logger.With().Str("event_id", ev.ID).Str("event_type", ev.Type).Logger()

	// filters may have changed since the event was enqueued
	if !w.consumer.WantsEvent(ev.Type) {
		if err := w.inbox.Complete(ctx, ev, w.settings.DeliveredTTL); err != nil {
			log.Error().Err(err).Msg("failed to complete filtered event")
		}
		log.Debug().Msg("event type filtered out")
		return
	}

	w.beat(ctx, "delivering")
	if err := w.inbox.Start(ctx, ev); err != nil {
		log.Warn().Err(err).Msg("failed to mark event delivering")
	}

	err := w.send(ctx, ev)
	if err == nil {
		if err := w.inbox.Complete(ctx, ev, w.settings.DeliveredTTL); err != nil {
			log.Error().Err(err).Msg("failed to complete event")
		}
		w.settings.Counters.Delivery(ctx, w.consumer.ID, inbox.Delivered.String())
		log.Info().Msg("event delivered")
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	retryable := true
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		retryable = statusErr.Retryable()
	}

	status, ferr := w.inbox.Fail(ctx, ev, err.Error(), retryable, w.settings.FailedTTL)
	if ferr != nil {
		log.Error().Err(ferr).Msg("failed to record delivery failure")
		return
	}
	w.settings.Counters.Delivery(ctx, w.consumer.ID, status.String())
	log.Warn().Err(err).
		Str("status", status.String()).
		Int("retry_count", ev.RetryCount).
		Msg("delivery attempt failed")
}

func (w *Worker) send(ctx context.Context, ev inbox.Event) error {
	secret, err := w.consumer.Secret()
	if err != nil {
		return fmt.Errorf("decoding signing secret: %w", err)
	}
	headers, err := signature.Headers(secret, ev.ID, w.now(), ev.Payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.consumer.TargetURL, bytes.NewReader(ev.Payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	tracing.InjectHeaders(ctx, req.Header)

	resp, err := w.settings.Client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyDrain))

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	return &StatusError{StatusCode: resp.StatusCode}
}

func (w *Worker) beat(ctx context.Context, status string) {
	if w.beats == nil {
		return
	}
	if err := w.beats.SetHeartbeat(ctx, w.consumer.ID, status); err != nil {
		w.logger.Debug().Err(err).Msg("failed to write heartbeat")
	}
}
