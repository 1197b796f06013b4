package models

import "encoding/json"

// Callback is the JSON payload Smartsheet posts to a webhook callback URL.
// WebhookID holds the textual form of the webhookId field, whether it was sent as a number or a string.
type Callback struct {
	Nonce            string          `json:"nonce,omitempty"`
	Timestamp        string          `json:"timestamp,omitempty"`
	WebhookID        string          `json:"-"`
	Scope            string          `json:"scope,omitempty"`
	ScopeObjectID    json.RawMessage `json:"scopeObjectId,omitempty"`
	NewWebhookStatus string          `json:"newWebhookStatus,omitempty"`
	Events           []CallbackEvent `json:"events,omitempty"`
}

// CallbackEvent is a single change reported in a callback.
type CallbackEvent struct {
	ObjectType string          `json:"objectType"`
	EventType  string          `json:"eventType"`
	ID         json.RawMessage `json:"id,omitempty"`
	UserID     json.RawMessage `json:"userId,omitempty"`
	Timestamp  string          `json:"timestamp,omitempty"`
}

// IsStatusChange reports whether the callback notifies a webhook status change rather than sheet events.
func (c *Callback) IsStatusChange() bool {
	return c.NewWebhookStatus != ""
}
