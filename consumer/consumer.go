package consumer

import (
	"context"
	"fmt"
	"net/url"

	"github.com/marcelsud/teams-inbox/inbox/payload"
	"github.com/marcelsud/teams-inbox/inbox/signature"
)

// KindMessages is the consumer kind interested in channel messages
const KindMessages = "messages"

/* Registration declares interest in the messages of one team, optionally
 * narrowed to a single channel, and where to deliver them
 */
type Registration struct {
	ID            string
	Kind          string
	TeamID        string
	ChannelID     string // empty means every channel of the team
	TargetURL     string
	SigningSecret string // Standard Webhooks secret (whsec_ prefix)
	MaxRetries    int
	EventTypes    []string // e.g. ["teams.message.created"], empty accepts all
}

// Registry is the source of consumer registrations
type Registry interface {
	List(ctx context.Context, kind string) ([]Registration, error)
}

func (r Registration) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id cannot be empty")
	}
	if r.TeamID == "" {
		return fmt.Errorf("team_id cannot be empty for consumer %s", r.ID)
	}
	if r.TargetURL == "" {
		return fmt.Errorf("target_url cannot be empty for consumer %s", r.ID)
	}
	if u, err := url.Parse(r.TargetURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("target_url must be an absolute URL for consumer %s", r.ID)
	}
	if r.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative for consumer %s", r.ID)
	}
	if r.SigningSecret != "" {
		if _, err := signature.ParseSecret(r.SigningSecret); err != nil {
			return fmt.Errorf("invalid signing_secret for consumer %s: %w", r.ID, err)
		}
	}
	for _, eventType := range r.EventTypes {
		if err := payload.ValidateEventType(eventType); err != nil {
			return fmt.Errorf("invalid event_type '%s' for consumer %s: %w", eventType, r.ID, err)
		}
	}
	return nil
}

// Matches compares ids parsed from a notification resource
func (r Registration) Matches(teamID, channelID string) bool {
	if teamID == "" || r.TeamID != teamID {
		return false
	}
	return r.ChannelID == "" || r.ChannelID == channelID
}

func (r Registration) WantsEvent(eventType string) bool {
	return payload.MatchesEventType(eventType, r.EventTypes)
}

// Secret decodes SigningSecret; nil when the consumer takes unsigned deliveries
func (r Registration) Secret() (signature.Secret, error) {
	if r.SigningSecret == "" {
		return nil, nil
	}
	return signature.ParseSecret(r.SigningSecret)
}
