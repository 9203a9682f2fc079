package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	SubscriptionResource    = "/teams/getAllMessages"
	SubscriptionChangeTypes = "created,updated"

	// SubscriptionLifetime is the longest expiration Graph accepts for channel messages
	SubscriptionLifetime = 4230 * time.Minute
)

type Subscription struct {
	ID                       string    `json:"id,omitempty"`
	Resource                 string    `json:"resource,omitempty"`
	ChangeType               string    `json:"changeType,omitempty"`
	NotificationURL          string    `json:"notificationUrl,omitempty"`
	LifecycleNotificationURL string    `json:"lifecycleNotificationUrl,omitempty"`
	ClientState              string    `json:"clientState,omitempty"`
	ExpirationDateTime       time.Time `json:"expirationDateTime"`
}

// CreateSubscription registers a subscription to every channel message in the tenant
func (c *Client) CreateSubscription(ctx context.Context, accessToken string, sub Subscription) (Subscription, error) {
	if sub.Resource == "" {
		sub.Resource = SubscriptionResource
	}
	if sub.ChangeType == "" {
		sub.ChangeType = SubscriptionChangeTypes
	}
	sub.ExpirationDateTime = sub.ExpirationDateTime.UTC()

	raw, err := c.Call(ctx, "/subscriptions", accessToken, WithMethod(http.MethodPost), WithBody(sub))
	if err != nil {
		return Subscription{}, fmt.Errorf("creating subscription: %w", err)
	}
	return decodeSubscription(raw)
}

// RenewSubscription moves the expiration of subscription id to expiresAt
func (c *Client) RenewSubscription(ctx context.Context, accessToken, id string, expiresAt time.Time) (Subscription, error) {
	body := map[string]time.Time{"expirationDateTime": expiresAt.UTC()}
	raw, err := c.Call(ctx, "/subscriptions/"+url.PathEscape(id), accessToken,
		WithMethod(http.MethodPatch), WithBody(body))
	if err != nil {
		return Subscription{}, fmt.Errorf("renewing subscription: %w", err)
	}
	return decodeSubscription(raw)
}

func (c *Client) DeleteSubscription(ctx context.Context, accessToken, id string) error {
	if _, err := c.Call(ctx, "/subscriptions/"+url.PathEscape(id), accessToken, WithMethod(http.MethodDelete)); err != nil {
		return fmt.Errorf("deleting subscription: %w", err)
	}
	return nil
}

// GetMessage fetches the chat message a notification resource points to
func (c *Client) GetMessage(ctx context.Context, accessToken, resource string) (map[string]any, error) {
	raw, err := c.Call(ctx, resource, accessToken)
	if err != nil {
		return nil, fmt.Errorf("fetching message: %w", err)
	}
	var message map[string]any
	if err := json.Unmarshal(raw, &message); err != nil {
		return nil, fmt.Errorf("decoding message: %w", err)
	}
	return message, nil
}

// GetOrganization is the cheapest call that proves the token is accepted
func (c *Client) GetOrganization(ctx context.Context, accessToken string) (json.RawMessage, error) {
	raw, err := c.Call(ctx, "/organization", accessToken)
	if err != nil {
		return nil, fmt.Errorf("fetching organization: %w", err)
	}
	return raw, nil
}

func decodeSubscription(raw json.RawMessage) (Subscription, error) {
	var sub Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return Subscription{}, fmt.Errorf("decoding subscription: %w", err)
	}
	return sub, nil
}
