package notification_test

import (
	"testing"

	"github.com/marcelsud/teams-inbox/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResource(t *testing.T) {
	tests := []struct {
		resource string
		want     notification.ResourcePath
	}{
		{
			resource: "teams('T1')/channels('C1')/messages('M1')",
			want:     notification.ResourcePath{TeamID: "T1", ChannelID: "C1", MessageID: "M1"},
		},
		{
			resource: "teams('T1')/channels('19:abc@thread.tacv2')/messages('1700000000000')/replies('1700000000001')",
			want:     notification.ResourcePath{TeamID: "T1", ChannelID: "19:abc@thread.tacv2", MessageID: "1700000000000", ReplyID: "1700000000001"},
		},
		{
			resource: "/teams/T1/channels/C1/messages/M1",
			want:     notification.ResourcePath{TeamID: "T1", ChannelID: "C1", MessageID: "M1"},
		},
		{
			resource: "chats('X1')/messages('M1')",
			want:     notification.ResourcePath{MessageID: "M1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.resource, func(t *testing.T) {
			got, err := notification.ParseResource(tt.resource)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("channel resource is not a message", func(t *testing.T) {
		_, err := notification.ParseResource("teams('T1')/channels('C1')")
		assert.Error(t, err)
	})
}

func TestIsMessageResource(t *testing.T) {
	assert.True(t, notification.IsMessageResource("teams('T1')/channels('C1')/messages('M1')"))
	assert.False(t, notification.IsMessageResource("teams('T1')/channels('C1')"))
	assert.False(t, notification.IsMessageResource("users('U1')"))
}
