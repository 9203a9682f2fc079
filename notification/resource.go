package notification

import (
	"fmt"
	"strings"
)

// ResourcePath holds the ids addressed by a message resource such as
// teams('T1')/channels('C1')/messages('M1')/replies('R1')
// or the slash form teams/T1/channels/C1/messages/M1.
type ResourcePath struct {
	TeamID    string
	ChannelID string
	MessageID string
	ReplyID   string
}

// IsMessageResource reports whether resource points at a channel message or reply
func IsMessageResource(resource string) bool {
	return strings.Contains(strings.ToLower(resource), "/messages")
}

func ParseResource(resource string) (ResourcePath, error) {
	var path ResourcePath
	segments := strings.Split(strings.Trim(resource, "/"), "/")

	for i := 0; i < len(segments); i++ {
		name, id, ok := splitKeySegment(segments[i])
		if !ok && i+1 < len(segments) {
			name, id = segments[i], segments[i+1]
			i++
		}

		switch strings.ToLower(name) {
		case "teams":
			path.TeamID = id
		case "channels":
			path.ChannelID = id
		case "messages":
			path.MessageID = id
		case "replies":
			path.ReplyID = id
		}
	}

	if path.MessageID == "" {
		return ResourcePath{}, fmt.Errorf("resource %q does not address a message", resource)
	}
	return path, nil
}

// splitKeySegment splits name('id') or name(id) into its parts
func splitKeySegment(segment string) (string, string, bool) {
	open := strings.IndexByte(segment, '(')
	if open <= 0 || !strings.HasSuffix(segment, ")") {
		return "", "", false
	}
	id := segment[open+1 : len(segment)-1]
	id = strings.TrimSuffix(strings.TrimPrefix(id, "'"), "'")
	return segment[:open], id, true
}
