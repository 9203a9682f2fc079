// Package notification models Microsoft Graph change and lifecycle
// notifications as they arrive on the webhook endpoints.
package notification

import "time"

type ChangeType string

const (
	Created ChangeType = "created"
	Updated ChangeType = "updated"
	Deleted ChangeType = "deleted"
)

type LifecycleEvent string

const (
	ReauthorizationRequired LifecycleEvent = "reauthorizationRequired"
	SubscriptionRemoved     LifecycleEvent = "subscriptionRemoved"
	Missed                  LifecycleEvent = "missed"
)

type ResourceData struct {
	ID        string `json:"id,omitempty"`
	ODataType string `json:"@odata.type,omitempty"`
	ODataID   string `json:"@odata.id,omitempty"`
	ODataETag string `json:"@odata.etag,omitempty"`
}

/* Notification is one item of a delivery batch
 * Only lives for the duration of a single webhook request
 */
type Notification struct {
	SubscriptionID                 string         `json:"subscriptionId,omitempty"`
	SubscriptionExpirationDateTime *time.Time     `json:"subscriptionExpirationDateTime,omitempty"`
	ChangeType                     ChangeType     `json:"changeType,omitempty"`
	Resource                       string         `json:"resource,omitempty"`
	ResourceData                   *ResourceData  `json:"resourceData,omitempty"`
	ClientState                    string         `json:"clientState,omitempty"`
	TenantID                       string         `json:"tenantId,omitempty"`
	LifecycleEvent                 LifecycleEvent `json:"lifecycleEvent,omitempty"`
}

// Envelope is the body Graph posts to a notification URL
type Envelope struct {
	Value []Notification `json:"value"`
}
