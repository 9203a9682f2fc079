package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/marcelsud/teams-inbox/graph"
	"github.com/rs/zerolog"
)

const (
	// RenewBuffer is the remaining lifetime under which a subscription gets renewed
	RenewBuffer = 24 * time.Hour
)

// API is the part of the Graph client the manager drives
type API interface {
	CreateSubscription(ctx context.Context, accessToken string, sub graph.Subscription) (graph.Subscription, error)
	RenewSubscription(ctx context.Context, accessToken, id string, expiresAt time.Time) (graph.Subscription, error)
	DeleteSubscription(ctx context.Context, accessToken, id string) error
}

type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

/* Manager keeps exactly one change-notification subscription alive
 * Uses pointer semantics as it's an API, not data
 */
type Manager struct {
	api         API
	tokens      TokenSource
	clientState string
	lifetime    time.Duration
	now         func() time.Time
	logger      zerolog.Logger
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

func WithLifetime(d time.Duration) Option {
	return func(m *Manager) { m.lifetime = d }
}

func NewManager(api API, tokens TokenSource, clientState string, opts ...Option) *Manager {
	m := &Manager{
		api:         api,
		tokens:      tokens,
		clientState: clientState,
		lifetime:    graph.SubscriptionLifetime,
		now:         time.Now,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Ensure leaves a subscription that is good for more than RenewBuffer.
// A valid one is returned untouched, an expiring one is renewed and anything
// else, including a failed renewal, is replaced by a new subscription.
func (m *Manager) Ensure(ctx context.Context, endpoints Endpoints, current State) (Result, error) {
	if current.ID != "" && !current.ExpiresAt.IsZero() {
		remaining := current.ExpiresAt.Sub(m.now())
		if remaining > RenewBuffer {
			m.logger.Debug().
				Str("subscription_id", current.ID).
				Dur("remaining", remaining).
				Msg("subscription still valid")
			return Result{ID: current.ID, ExpiresAt: current.ExpiresAt, Action: ActionValid}, nil
		}
	}
	return m.renewOrCreate(ctx, endpoints, current)
}

// Reauthorize renews current whatever its remaining lifetime, as Graph asks
// for after a reauthorizationRequired lifecycle event. A subscription that
// cannot be renewed is replaced.
func (m *Manager) Reauthorize(ctx context.Context, endpoints Endpoints, current State) (Result, error) {
	return m.renewOrCreate(ctx, endpoints, current)
}

func (m *Manager) renewOrCreate(ctx context.Context, endpoints Endpoints, current State) (Result, error) {
	accessToken, err := m.tokens.AccessToken(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("getting access token: %w", err)
	}

	if current.ID != "" && !current.ExpiresAt.IsZero() {
		renewed, err := m.api.RenewSubscription(ctx, accessToken, current.ID, m.now().Add(m.lifetime))
		if err == nil {
			m.logger.Info().
				Str("subscription_id", current.ID).
				Time("expires_at", renewed.ExpirationDateTime).
				Msg("subscription renewed")
			return Result{ID: current.ID, ExpiresAt: renewed.ExpirationDateTime, Action: ActionRenewed}, nil
		}
		m.logger.Warn().Err(err).
			Str("subscription_id", current.ID).
			Msg("failed to renew subscription, creating a new one")
	}

	created, err := m.api.CreateSubscription(ctx, accessToken, graph.Subscription{
		Resource:                 graph.SubscriptionResource,
		ChangeType:               graph.SubscriptionChangeTypes,
		NotificationURL:          endpoints.NotificationURL,
		LifecycleNotificationURL: endpoints.LifecycleURL,
		ClientState:              m.clientState,
		ExpirationDateTime:       m.now().Add(m.lifetime),
	})
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to create subscription")
		return Result{}, err
	}

	m.logger.Info().
		Str("subscription_id", created.ID).
		Time("expires_at", created.ExpirationDateTime).
		Msg("subscription created")
	return Result{ID: created.ID, ExpiresAt: created.ExpirationDateTime, Action: ActionCreated}, nil
}

// Teardown deletes subscription id. Failures are logged and swallowed.
func (m *Manager) Teardown(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if err := m.Delete(ctx, id); err != nil {
		m.logger.Error().Err(err).Str("subscription_id", id).Msg("failed to delete subscription")
		return
	}
	m.logger.Info().Str("subscription_id", id).Msg("subscription deleted")
}

// Delete removes subscription id and reports the outcome
func (m *Manager) Delete(ctx context.Context, id string) error {
	accessToken, err := m.tokens.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("getting access token: %w", err)
	}
	return m.api.DeleteSubscription(ctx, accessToken, id)
}
