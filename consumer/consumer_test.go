package consumer_test

import (
	"testing"

	"github.com/marcelsud/teams-inbox/consumer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistration_Matches(t *testing.T) {
	teamWide := consumer.Registration{ID: "a", TeamID: "T1"}
	channel := consumer.Registration{ID: "b", TeamID: "T1", ChannelID: "C1"}

	assert.True(t, teamWide.Matches("T1", "C1"))
	assert.True(t, teamWide.Matches("T1", "C2"))
	assert.False(t, teamWide.Matches("T2", "C1"))
	assert.False(t, teamWide.Matches("", "C1"))

	assert.True(t, channel.Matches("T1", "C1"))
	assert.False(t, channel.Matches("T1", "C2"))
	assert.False(t, channel.Matches("T2", "C1"))
}

func TestRegistration_MatchesIsNotSubstring(t *testing.T) {
	reg := consumer.Registration{ID: "a", TeamID: "T1"}

	assert.False(t, reg.Matches("T10", "C1"))
}

func TestRegistration_WantsEvent(t *testing.T) {
	all := consumer.Registration{ID: "a", TeamID: "T1"}
	createdOnly := consumer.Registration{ID: "b", TeamID: "T1", EventTypes: []string{"teams.message.created"}}

	assert.True(t, all.WantsEvent("teams.message.updated"))
	assert.True(t, createdOnly.WantsEvent("teams.message.created"))
	assert.False(t, createdOnly.WantsEvent("teams.message.updated"))
}

func TestRegistration_Secret(t *testing.T) {
	unsigned := consumer.Registration{ID: "a"}
	secret, err := unsigned.Secret()
	require.NoError(t, err)
	assert.Nil(t, secret)

	signed := consumer.Registration{ID: "b", SigningSecret: "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"}
	secret, err = signed.Secret()
	require.NoError(t, err)
	assert.Len(t, secret, 24)
}
