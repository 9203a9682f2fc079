package token

import (
	"context"
	"errors"
	"time"

	"github.com/marcelsud/teams-inbox/state"
	"github.com/rs/zerolog"
)

// DefaultBuffer is how long before expiry a cached token stops being handed out
const DefaultBuffer = 5 * time.Minute

// Cache hands out bearer tokens from durable storage and refreshes them
// through the Provider when they are missing or inside the buffer.
type Cache struct {
	provider Provider
	store    state.Store
	buffer   time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

type Option func(*Cache)

func WithBuffer(d time.Duration) Option {
	return func(c *Cache) { c.buffer = d }
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

func NewCache(provider Provider, store state.Store, opts ...Option) *Cache {
	c := &Cache{
		provider: provider,
		store:    store,
		buffer:   DefaultBuffer,
		now:      time.Now,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetValidToken returns the cached credential when it outlives the buffer,
// otherwise fetches, stores and returns a new one.
func (c *Cache) GetValidToken(ctx context.Context) (Credential, error) {
	if cred, ok := c.cached(ctx); ok && cred.ValidFor(c.now(), c.buffer) {
		return cred, nil
	}
	return c.Refresh(ctx)
}

// AccessToken is GetValidToken reduced to the bearer string
func (c *Cache) AccessToken(ctx context.Context) (string, error) {
	cred, err := c.GetValidToken(ctx)
	if err != nil {
		return "", err
	}
	return cred.AccessToken, nil
}

// Refresh always asks the provider for a new credential and overwrites the stored one
func (c *Cache) Refresh(ctx context.Context) (Credential, error) {
	cred, err := c.provider.FetchToken(ctx)
	if err != nil {
		if errors.Is(err, ErrAuthFailure) {
			return Credential{}, err
		}
		return Credential{}, &AuthError{Err: err}
	}

	// A token that could not be stored is still good for this caller.
	if err := c.store.Set(ctx, state.KeyAccessToken, cred.AccessToken); err != nil {
		c.logger.Error().Err(err).Msg("storing access token")
		return cred, nil
	}
	if err := c.store.Set(ctx, state.KeyTokenExpiry, state.FormatMillis(cred.ExpiresAt)); err != nil {
		c.logger.Error().Err(err).Msg("storing access token expiry")
	}
	return cred, nil
}

func (c *Cache) cached(ctx context.Context) (Credential, bool) {
	accessToken, err := c.store.Get(ctx, state.KeyAccessToken)
	if err != nil {
		if !errors.Is(err, state.ErrNotFound) {
			c.logger.Warn().Err(err).Msg("reading cached access token")
		}
		return Credential{}, false
	}
	rawExpiry, err := c.store.Get(ctx, state.KeyTokenExpiry)
	if err != nil {
		if !errors.Is(err, state.ErrNotFound) {
			c.logger.Warn().Err(err).Msg("reading cached token expiry")
		}
		return Credential{}, false
	}
	expiresAt, err := state.ParseMillis(rawExpiry)
	if err != nil {
		c.logger.Warn().Err(err).Msg("cached token expiry is corrupt")
		return Credential{}, false
	}
	return Credential{AccessToken: accessToken, ExpiresAt: expiresAt}, true
}
