package token

import (
	"context"
	"time"
)

/* Credential is a bearer token and the instant it stops being accepted.
 * Uses value semantics as it represents data, not behavior
 */
type Credential struct {
	AccessToken string
	ExpiresAt   time.Time
}

// ValidFor reports whether the credential can still be used for at least buffer
func (c Credential) ValidFor(now time.Time, buffer time.Duration) bool {
	if c.AccessToken == "" {
		return false
	}
	return now.Add(buffer).Before(c.ExpiresAt)
}

// Provider exchanges service credentials for a fresh bearer token
type Provider interface {
	FetchToken(ctx context.Context) (Credential, error)
}
