package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"provider/internal/domain"
	"provider/internal/models"
)

const webhookColumns = `id, client_id, url, active, secret_token, event_types, created_at, updated_at`

func scanWebhook(row scanner) (*models.ClientWebhook, error) {
	var (
		w      models.ClientWebhook
		events string
	)
	err := row.Scan(&w.ID, &w.ClientID, &w.URL, &w.Active, &w.SecretToken, &events, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(events), &w.EventTypes); err != nil {
		return nil, fmt.Errorf("webhook %d event types: %w", w.ID, err)
	}
	return &w, nil
}

func (s *Store) queryWebhooks(ctx context.Context, query string, args ...interface{}) ([]*models.ClientWebhook, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get webhooks: %w", err)
	}
	defer rows.Close()

	var hooks []*models.ClientWebhook
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook: %w", err)
		}
		hooks = append(hooks, w)
	}
	return hooks, rows.Err()
}

func (s *Store) CreateWebhook(ctx context.Context, webhook *models.ClientWebhook) error {
	events, err := json.Marshal(webhook.EventTypes)
	if err != nil {
		return fmt.Errorf("encode event types: %w", err)
	}

	query := `INSERT INTO client_webhooks (client_id, url, active, secret_token, event_types, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := s.q.ExecContext(ctx, query,
		webhook.ClientID,
		webhook.URL,
		webhook.Active,
		webhook.SecretToken,
		string(events),
		now,
		now,
	)
	if isUniqueViolation(err) {
		return domain.Conflictf("webhook %s already registered for client %s", webhook.URL, webhook.ClientID)
	}
	if err != nil {
		return fmt.Errorf("failed to create webhook: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	webhook.ID = id
	webhook.CreatedAt = now
	webhook.UpdatedAt = now
	return nil
}

func (s *Store) GetWebhook(ctx context.Context, id int64) (*models.ClientWebhook, error) {
	w, err := scanWebhook(s.q.QueryRowContext(ctx, `SELECT `+webhookColumns+` FROM client_webhooks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("webhook %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook: %w", err)
	}
	return w, nil
}

func (s *Store) GetClientWebhooks(ctx context.Context, clientID string) ([]*models.ClientWebhook, error) {
	return s.queryWebhooks(ctx, `SELECT `+webhookColumns+` FROM client_webhooks WHERE client_id = ? ORDER BY id`, clientID)
}

// GetSubscribedWebhooks returns active webhooks listening to eventType.
func (s *Store) GetSubscribedWebhooks(ctx context.Context, eventType string) ([]*models.ClientWebhook, error) {
	hooks, err := s.queryWebhooks(ctx, `SELECT `+webhookColumns+` FROM client_webhooks WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	subscribed := hooks[:0]
	for _, w := range hooks {
		if w.Subscribes(eventType) {
			subscribed = append(subscribed, w)
		}
	}
	return subscribed, nil
}

func (s *Store) DeleteWebhook(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM client_webhooks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	return rowsAffected(res, domain.NotFoundf("webhook %d", id))
}
