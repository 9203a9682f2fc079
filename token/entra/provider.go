// Package entra obtains application tokens for Microsoft Graph from
// Microsoft Entra ID using the OAuth2 client credentials grant.
package entra

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/marcelsud/teams-inbox/token"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	DefaultAuthorityURL = "https://login.microsoftonline.com"
	GraphScope          = "https://graph.microsoft.com/.default"

	// Lifetime assumed when the token response omits expires_in
	defaultLifetime = 3599 * time.Second
)

type Provider struct {
	config     clientcredentials.Config
	httpClient *http.Client
	now        func() time.Time
}

type Option func(*Provider)

func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) { p.httpClient = client }
}

func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

func NewProvider(authorityURL, tenantID, clientID, clientSecret string, opts ...Option) *Provider {
	if authorityURL == "" {
		authorityURL = DefaultAuthorityURL
	}
	p := &Provider{
		config: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     TokenURL(authorityURL, tenantID),
			Scopes:       []string{GraphScope},
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TokenURL is the v2.0 token endpoint of tenantID under authorityURL
func TokenURL(authorityURL, tenantID string) string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", strings.TrimSuffix(authorityURL, "/"), tenantID)
}

func (p *Provider) FetchToken(ctx context.Context) (token.Credential, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	tok, err := p.config.Token(ctx)
	if err != nil {
		return token.Credential{}, &token.AuthError{Reason: describe(err), Err: err}
	}

	expiresAt := tok.Expiry
	if expiresAt.IsZero() {
		expiresAt = p.now().Add(defaultLifetime)
	}
	return token.Credential{AccessToken: tok.AccessToken, ExpiresAt: expiresAt}, nil
}

func describe(err error) string {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		return err.Error()
	}
	if retrieveErr.ErrorDescription != "" {
		return retrieveErr.ErrorDescription
	}
	if retrieveErr.ErrorCode != "" {
		return retrieveErr.ErrorCode
	}
	if retrieveErr.Response != nil {
		return fmt.Sprintf("token endpoint returned status %d", retrieveErr.Response.StatusCode)
	}
	return err.Error()
}
