package payload_test

import (
	"testing"
	"time"

	"github.com/marcelsud/teams-inbox/inbox/payload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	timestamp := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("message event", func(t *testing.T) {
		p, err := payload.New(payload.MessageEventType("created"), map[string]any{"id": "M1", "changeType": "created"}, timestamp)

		require.NoError(t, err)
		assert.Equal(t, "teams.message.created", p.Type)

		body, err := p.Bytes()
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"type": "teams.message.created",
			"timestamp": "2025-03-01T12:00:00Z",
			"data": {"id": "M1", "changeType": "created"}
		}`, string(body))

		parsed, err := payload.Parse(body)
		require.NoError(t, err)
		assert.Equal(t, p.Type, parsed.Type)
		assert.True(t, timestamp.Equal(parsed.Timestamp))
	})

	t.Run("invalid type", func(t *testing.T) {
		_, err := payload.New("teams message", map[string]any{}, timestamp)
		assert.Error(t, err)
	})

	t.Run("zero timestamp", func(t *testing.T) {
		_, err := payload.New("teams.message.created", map[string]any{}, time.Time{})
		assert.Error(t, err)
	})
}

func TestParseRejectsMissingData(t *testing.T) {
	_, err := payload.Parse([]byte(`{"type":"teams.message.created","timestamp":"2025-03-01T12:00:00Z"}`))
	assert.Error(t, err)
}

func TestMatchesEventType(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		filters   []string
		want      bool
	}{
		{"no filters", "teams.message.created", nil, true},
		{"exact", "teams.message.created", []string{"teams.message.created"}, true},
		{"other exact", "teams.message.updated", []string{"teams.message.created"}, false},
		{"wildcard", "teams.message.updated", []string{"teams.message.*"}, true},
		{"wildcard needs a segment", "teams.message", []string{"teams.message.*"}, false},
		{"wildcard prefix boundary", "teams.messages.created", []string{"teams.message.*"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, payload.MatchesEventType(tt.eventType, tt.filters))
		})
	}
}

func TestValidateEventType(t *testing.T) {
	assert.NoError(t, payload.ValidateEventType("teams.message.created"))
	assert.NoError(t, payload.ValidateEventType("teams.message.*"))
	assert.Error(t, payload.ValidateEventType(""))
	assert.Error(t, payload.ValidateEventType("teams..message"))
	assert.Error(t, payload.ValidateEventType("teams-message"))
}
