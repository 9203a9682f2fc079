// Package integration wires the token cache, Graph access and the change
// subscription into the reconciliation jobs the service runs.
package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marcelsud/teams-inbox/notification"
	"github.com/marcelsud/teams-inbox/state"
	"github.com/marcelsud/teams-inbox/subscription"
	"github.com/marcelsud/teams-inbox/token"
	"github.com/marcelsud/teams-inbox/token/entra"
	"github.com/rs/zerolog"
)

// DefaultSyncTimeout bounds a sync started by TriggerSync
const DefaultSyncTimeout = 2 * time.Minute

type Tokens interface {
	Refresh(ctx context.Context) (token.Credential, error)
}

// Verifier proves a token is accepted by Graph
type Verifier interface {
	GetOrganization(ctx context.Context, accessToken string) (json.RawMessage, error)
}

type Subscriptions interface {
	Ensure(ctx context.Context, endpoints subscription.Endpoints, current subscription.State) (subscription.Result, error)
	Reauthorize(ctx context.Context, endpoints subscription.Endpoints, current subscription.State) (subscription.Result, error)
	Delete(ctx context.Context, id string) error
	Teardown(ctx context.Context, id string)
}

/* Recovery tells a triggered sync what a lifecycle notification reported
 * about the stored subscription. Higher values take precedence when
 * requests pile up.
 */
type Recovery int32

const (
	RecoveryNone Recovery = iota
	// renew now, whatever the remaining lifetime
	RecoveryReauthorize
	// the stored subscription is gone, create a new one
	RecoveryRecreate
)

type Settings struct {
	EnableSubscriptions bool
	Endpoints           subscription.Endpoints
	SyncTimeout         time.Duration
}

type Service struct {
	tokens   Tokens
	verifier Verifier
	subs     Subscriptions
	store    state.Store
	settings Settings
	logger   zerolog.Logger

	syncing atomic.Bool
	pending atomic.Int32
	wg      sync.WaitGroup
}

func NewService(tokens Tokens, verifier Verifier, subs Subscriptions, store state.Store, settings Settings, logger zerolog.Logger) *Service {
	if settings.SyncTimeout <= 0 {
		settings.SyncTimeout = DefaultSyncTimeout
	}
	return &Service{
		tokens:   tokens,
		verifier: verifier,
		subs:     subs,
		store:    store,
		settings: settings,
		logger:   logger,
	}
}

// Sync brings the installation to its configured state: a fresh token that
// Graph accepts and, when enabled, a live subscription. With subscriptions
// disabled a previously stored subscription is deleted.
func (s *Service) Sync(ctx context.Context) error {
	return s.sync(ctx, RecoveryNone)
}

func (s *Service) sync(ctx context.Context, recovery Recovery) error {
	if recovery == RecoveryRecreate {
		if err := s.forget(ctx); err != nil {
			return err
		}
		s.logger.Info().Msg("stored subscription forgotten after removal")
	}

	cred, err := s.tokens.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refreshing access token: %w", err)
	}
	if _, err := s.verifier.GetOrganization(ctx, cred.AccessToken); err != nil {
		return fmt.Errorf("verifying Graph access: %w", err)
	}
	s.checkRoles(cred.AccessToken)

	if s.settings.EnableSubscriptions {
		return s.ensure(ctx, recovery)
	}
	return s.cleanup(ctx)
}

func (s *Service) ensure(ctx context.Context, recovery Recovery) error {
	ensure := s.subs.Ensure
	if recovery == RecoveryReauthorize {
		ensure = s.subs.Reauthorize
	}
	result, err := ensure(ctx, s.settings.Endpoints, s.current(ctx))
	if err != nil {
		return fmt.Errorf("ensuring subscription: %w", err)
	}

	switch result.Action {
	case subscription.ActionCreated:
		s.logger.Info().
			Str("notification_url", s.settings.Endpoints.NotificationURL).
			Str("lifecycle_url", s.settings.Endpoints.LifecycleURL).
			Msg("subscription created for webhook")
	case subscription.ActionRenewed:
		s.logger.Info().Msg("subscription renewed successfully")
	}

	if err := s.store.Set(ctx, state.KeySubscriptionID, result.ID); err != nil {
		return fmt.Errorf("storing subscription id: %w", err)
	}
	if err := s.store.Set(ctx, state.KeySubscriptionExpiry, state.FormatMillis(result.ExpiresAt)); err != nil {
		return fmt.Errorf("storing subscription expiry: %w", err)
	}
	return nil
}

func (s *Service) cleanup(ctx context.Context) error {
	s.logger.Info().Msg("message subscriptions disabled, no events will be received")

	id := s.current(ctx).ID
	if id == "" {
		return nil
	}
	if err := s.subs.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting existing subscription: %w", err)
	}
	s.logger.Info().Str("subscription_id", id).Msg("deleted existing subscription")

	// cleared only once Graph confirmed the delete
	return s.forget(ctx)
}

func (s *Service) forget(ctx context.Context) error {
	if err := s.store.Delete(ctx, state.KeySubscriptionID); err != nil {
		return fmt.Errorf("clearing subscription id: %w", err)
	}
	if err := s.store.Delete(ctx, state.KeySubscriptionExpiry); err != nil {
		return fmt.Errorf("clearing subscription expiry: %w", err)
	}
	return nil
}

// current reads the stored subscription; unreadable values count as absent
func (s *Service) current(ctx context.Context) subscription.State {
	id, err := s.store.Get(ctx, state.KeySubscriptionID)
	if err != nil {
		if !errors.Is(err, state.ErrNotFound) {
			s.logger.Warn().Err(err).Msg("failed to read subscription id")
		}
		return subscription.State{}
	}
	current := subscription.State{ID: id}

	raw, err := s.store.Get(ctx, state.KeySubscriptionExpiry)
	if err != nil {
		return current
	}
	if expiresAt, err := state.ParseMillis(raw); err == nil {
		current.ExpiresAt = expiresAt
	}
	return current
}

func (s *Service) checkRoles(accessToken string) {
	if !s.settings.EnableSubscriptions {
		return
	}
	ok, err := entra.HasRole(accessToken, entra.RoleChannelMessageReadAll)
	if err != nil {
		s.logger.Debug().Err(err).Msg("access token roles not inspectable")
		return
	}
	if !ok {
		s.logger.Warn().
			Str("role", entra.RoleChannelMessageReadAll).
			Msg("access token lacks the application role needed for message subscriptions")
	}
}

// Resync reacts to a lifecycle notification with a background sync
func (s *Service) Resync(event notification.LifecycleEvent) {
	switch event {
	case notification.ReauthorizationRequired:
		s.TriggerSync(RecoveryReauthorize)
	case notification.SubscriptionRemoved:
		s.TriggerSync(RecoveryRecreate)
	default:
		s.TriggerSync(RecoveryNone)
	}
}

// TriggerSync runs a sync in the background, detached from the caller.
// A plain trigger while a sync is in flight is dropped; a recovery request
// is kept and gets a pass of its own once the running sync is done.
func (s *Service) TriggerSync(recovery Recovery) {
	s.request(recovery)
	if !s.syncing.CompareAndSwap(false, true) {
		s.logger.Debug().Msg("sync already running, trigger coalesced")
		return
	}

	s.wg.Add(1)
	go s.runTriggered()
}

func (s *Service) request(recovery Recovery) {
	for {
		current := s.pending.Load()
		if int32(recovery) <= current || s.pending.CompareAndSwap(current, int32(recovery)) {
			return
		}
	}
}

func (s *Service) runTriggered() {
	defer s.wg.Done()
	for {
		recovery := Recovery(s.pending.Swap(0))

		ctx, cancel := context.WithTimeout(context.Background(), s.settings.SyncTimeout)
		err := s.sync(ctx, recovery)
		cancel()
		if err != nil {
			s.logger.Error().Err(err).Msg("triggered sync failed")
		} else {
			s.logger.Info().Msg("triggered sync completed")
		}

		s.syncing.Store(false)
		if s.pending.Load() == 0 || !s.syncing.CompareAndSwap(false, true) {
			return
		}
	}
}

// Wait blocks until a triggered sync, if any, has finished
func (s *Service) Wait() {
	s.wg.Wait()
}

// RefreshToken replaces the stored token ahead of its expiry
func (s *Service) RefreshToken(ctx context.Context) error {
	cred, err := s.tokens.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refreshing access token on schedule: %w", err)
	}
	s.logger.Info().Time("expires_at", cred.ExpiresAt).Msg("token refreshed successfully")
	return nil
}

// Drain deletes the stored subscription on the way out. It never fails.
func (s *Service) Drain(ctx context.Context) {
	id := s.current(ctx).ID
	if id == "" {
		return
	}
	s.subs.Teardown(ctx, id)
}
