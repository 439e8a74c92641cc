package models

import "time"

const (
	// DefaultListingIDStart is the first id handed out to a listing on an empty store.
	DefaultListingIDStart int64 = 9000

	// MinLocator and MaxLocator bound the public booking locator, inclusive.
	MinLocator int64 = 100000
	MaxLocator int64 = 9999999

	// DefaultLocatorAttempts caps re-draws when a locator is already taken.
	DefaultLocatorAttempts = 50

	// WebhookTimeout is the network cap for a single webhook delivery.
	WebhookTimeout = 30 * time.Second

	// WorkerQueueSize is the size of the in-process outbox queue.
	WorkerQueueSize = 128

	DateLayout = "2006-01-02"
)

// Webhook event types.
const (
	EventListingUpdated   = "listing_updated"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCancelled = "booking_cancelled"
)

// Outbox task statuses.
const (
	TaskStatusPending    = "pending"
	TaskStatusRetry      = "retry"
	TaskStatusProcessing = "processing"
	TaskStatusCompleted  = "completed"
	TaskStatusFailed     = "failed"
	TaskStatusSkipped    = "skipped"
)

// KnownEventTypes lists the events a webhook can subscribe to.
var KnownEventTypes = []string{EventListingUpdated, EventBookingConfirmed, EventBookingCancelled}

func IsKnownEventType(eventType string) bool {
	for _, known := range KnownEventTypes {
		if known == eventType {
			return true
		}
	}
	return false
}
