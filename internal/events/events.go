// Package events is an in-process pub/sub for domain events. Delivery to
// external subscribers goes through the webhook outbox, not through here.
package events

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"provider/internal/models"
)

// Wildcard subscribes a handler to every event type.
const Wildcard = "*"

const (
	EventListingCreated   = "listing_created"
	EventListingUpdated   = models.EventListingUpdated
	EventBookingConfirmed = models.EventBookingConfirmed
	EventBookingCancelled = models.EventBookingCancelled
	EventWebhookEnqueued  = "webhook_enqueued"
)

// BookingEventPayload is the booking snapshot published after commit.
type BookingEventPayload struct {
	BookingID  int64     `json:"booking_id"`
	ListingID  int64     `json:"listing_id"`
	CustomerID int64     `json:"customer_id"`
	Locator    int64     `json:"locator"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	TotalPrice float64   `json:"total_price"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for an event type, or for all with Wildcard.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish runs the matching handlers synchronously and joins their errors.
// A failing handler does not stop the others.
func (b *EventBus) Publish(event *Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.subscribers[Wildcard]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishJSON serializes the payload and publishes an event. A nil bus is a no-op.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
}

// Decode unmarshals the event payload into out.
func (e *Event) Decode(out interface{}) error {
	return json.Unmarshal(e.Payload, out)
}
