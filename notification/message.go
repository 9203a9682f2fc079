package notification

const systemEventContent = "<systemEventMessage/>"

/* HydratedMessage is the full chat message fetched for a notification
 * together with the change that produced it
 */
type HydratedMessage struct {
	Resource   string
	ChangeType ChangeType
	Message    map[string]any
}

// Body is the message object with changeType merged in, as consumers receive it
func (h HydratedMessage) Body() map[string]any {
	body := make(map[string]any, len(h.Message)+1)
	for k, v := range h.Message {
		body[k] = v
	}
	body["changeType"] = string(h.ChangeType)
	return body
}

// IsSystemEvent reports whether the message is a Teams system event
// (member added, app installed, ...) rather than user content.
func (h HydratedMessage) IsSystemEvent() bool {
	body, ok := h.Message["body"].(map[string]any)
	if !ok {
		return false
	}
	content, _ := body["content"].(string)
	return content == systemEventContent
}

// ETag changes with every edit of the message
func (h HydratedMessage) ETag() string {
	etag, _ := h.Message["etag"].(string)
	return etag
}
