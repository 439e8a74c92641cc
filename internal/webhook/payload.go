// Package webhook builds, signs and delivers client event notifications.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"provider/internal/domain"
	"provider/internal/models"

	"github.com/google/uuid"
)

// Payload is the JSON body POSTed to subscribers.
type Payload struct {
	EventType string      `json:"event_type"`
	ListingID int64       `json:"listing_id"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

func BuildPayload(eventType string, listingID int64, data interface{}, at time.Time) ([]byte, error) {
	body, err := json.Marshal(Payload{
		EventType: eventType,
		ListingID: listingID,
		Data:      data,
		Timestamp: at.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode webhook payload: %w", err)
	}
	return body, nil
}

// Enqueue writes one outbox row per webhook subscribed to eventType and returns
// their ids. It must run on the store of the transaction making the change.
func Enqueue(ctx context.Context, store domain.Store, eventType string, listingID int64, data interface{}, at time.Time) ([]int64, error) {
	hooks, err := store.GetSubscribedWebhooks(ctx, eventType)
	if err != nil {
		return nil, err
	}
	if len(hooks) == 0 {
		return nil, nil
	}

	body, err := BuildPayload(eventType, listingID, data, at)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(hooks))
	for _, hook := range hooks {
		task := &models.WebhookTask{
			WebhookID: hook.ID,
			EventType: eventType,
			ListingID: listingID,
			Payload:   string(body),
			Status:    models.TaskStatusPending,
		}
		if err := store.CreateWebhookTask(ctx, task); err != nil {
			return nil, err
		}
		ids = append(ids, task.ID)
	}
	return ids, nil
}

// GenerateSecret returns a random 64 hex character signing secret.
func GenerateSecret() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}
