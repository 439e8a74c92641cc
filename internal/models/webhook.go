package models

import "time"

// ClientWebhook is a client subscription to provider events.
type ClientWebhook struct {
	ID          int64     `json:"id"`
	ClientID    string    `json:"client_id" validate:"required,max=100"`
	URL         string    `json:"url" validate:"required,http_url"`
	Active      bool      `json:"active"`
	SecretToken string    `json:"secret_token,omitempty"`
	EventTypes  []string  `json:"event_types" validate:"dive,event_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Subscribes reports whether the webhook is active and listens to eventType.
func (w ClientWebhook) Subscribes(eventType string) bool {
	if !w.Active {
		return false
	}
	for _, et := range w.EventTypes {
		if et == eventType {
			return true
		}
	}
	return false
}

// WebhookTask is an outbox row: one pending delivery of an event to one webhook.
type WebhookTask struct {
	ID          int64      `json:"id"`
	WebhookID   int64      `json:"webhook_id"`
	EventType   string     `json:"event_type"`
	ListingID   int64      `json:"listing_id"`
	Payload     string     `json:"payload"`
	Status      string     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	LastError   *string    `json:"last_error"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at"`
	NextRetryAt *time.Time `json:"next_retry_at"`
}
