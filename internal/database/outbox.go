package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"provider/internal/domain"
	"provider/internal/models"
)

const taskColumns = `id, webhook_id, event_type, listing_id, payload, status, retry_count, last_error, created_at, processed_at, next_retry_at`

func scanTask(row scanner) (models.WebhookTask, error) {
	var t models.WebhookTask
	err := row.Scan(
		&t.ID, &t.WebhookID, &t.EventType, &t.ListingID, &t.Payload, &t.Status,
		&t.RetryCount, &t.LastError, &t.CreatedAt, &t.ProcessedAt, &t.NextRetryAt,
	)
	return t, err
}

// CreateWebhookTask writes an outbox row. Call it inside the transaction of the triggering write.
func (s *Store) CreateWebhookTask(ctx context.Context, task *models.WebhookTask) error {
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	query := `INSERT INTO webhook_outbox (webhook_id, event_type, listing_id, payload, status, retry_count, last_error, created_at, next_retry_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := s.q.ExecContext(ctx, query,
		task.WebhookID,
		task.EventType,
		task.ListingID,
		task.Payload,
		task.Status,
		task.RetryCount,
		task.LastError,
		now,
		task.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create webhook task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now
	return nil
}

func (db *DB) GetWebhookTask(ctx context.Context, id int64) (*models.WebhookTask, error) {
	t, err := scanTask(db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM webhook_outbox WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("webhook task %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook task: %w", err)
	}
	return &t, nil
}

// claimableTask matches rows a worker may take: due pending or retry rows, and
// processing rows whose lease ran out.
const claimableTask = `((status IN ('pending', 'retry') AND (next_retry_at IS NULL OR next_retry_at <= ?))
               OR (status = 'processing' AND next_retry_at <= ?))`

// GetPendingWebhookTasks returns claimable rows, oldest first.
func (db *DB) GetPendingWebhookTasks(ctx context.Context, limit int) ([]models.WebhookTask, error) {
	now := time.Now().UTC()
	query := `SELECT ` + taskColumns + `
              FROM webhook_outbox
              WHERE ` + claimableTask + `
              ORDER BY created_at ASC, id ASC LIMIT ?`
	return db.queryTasks(ctx, query, now, now, limit)
}

// ClaimWebhookTask moves a claimable row to processing for the given lease.
// It reports false when another worker holds it, or it is done or not yet due.
// A worker that dies mid-delivery leaves the row to be reclaimed once the lease expires.
func (db *DB) ClaimWebhookTask(ctx context.Context, id int64, lease time.Duration) (bool, error) {
	now := time.Now().UTC()
	query := `UPDATE webhook_outbox SET status = ?, next_retry_at = ?
              WHERE id = ? AND ` + claimableTask
	res, err := db.ExecContext(ctx, query, models.TaskStatusProcessing, now.Add(lease), id, now, now)
	if err != nil {
		return false, fmt.Errorf("failed to claim webhook task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to claim webhook task: %w", err)
	}
	return n == 1, nil
}

// GetFailedWebhookTasks lists rows that exhausted their retries, newest first.
func (db *DB) GetFailedWebhookTasks(ctx context.Context) ([]models.WebhookTask, error) {
	query := `SELECT ` + taskColumns + ` FROM webhook_outbox WHERE status = 'failed' ORDER BY created_at DESC`
	return db.queryTasks(ctx, query)
}

func (db *DB) queryTasks(ctx context.Context, query string, args ...interface{}) ([]models.WebhookTask, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.WebhookTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (db *DB) UpdateWebhookTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error {
	var query string
	var args []interface{}
	now := time.Now().UTC()

	var lastError *string
	if errMsg != "" {
		lastError = &errMsg
	}

	switch status {
	case models.TaskStatusRetry:
		query = `UPDATE webhook_outbox SET status = ?, last_error = ?, next_retry_at = ?, retry_count = retry_count + 1 WHERE id = ?`
		args = []interface{}{status, lastError, nextRetryAt, id}
	case models.TaskStatusCompleted, models.TaskStatusFailed, models.TaskStatusSkipped:
		query = `UPDATE webhook_outbox SET status = ?, last_error = ?, next_retry_at = ?, processed_at = ? WHERE id = ?`
		args = []interface{}{status, lastError, nextRetryAt, now, id}
	default:
		query = `UPDATE webhook_outbox SET status = ?, last_error = ?, next_retry_at = ? WHERE id = ?`
		args = []interface{}{status, lastError, nextRetryAt, id}
	}

	_, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update webhook task status: %w", err)
	}
	return nil
}
