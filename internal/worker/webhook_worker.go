package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"provider/internal/domain"
	"provider/internal/metrics"
	"provider/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Deliverer sends one signed payload to a subscriber.
type Deliverer interface {
	Send(ctx context.Context, hook *models.ClientWebhook, eventType string, body []byte) error
}

// WebhookWorker drains the webhook outbox. Task ids arrive through the local
// queue or a Redis list; the table itself is polled so nothing committed is lost.
type WebhookWorker struct {
	repo          domain.OutboxRepository
	sender        Deliverer
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan int64
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	lease         time.Duration
	logger        *zerolog.Logger
}

type Option func(*WebhookWorker)

// WithLease sets how long a claimed row stays processing before another
// worker may take it over.
func WithLease(d time.Duration) Option {
	return func(w *WebhookWorker) {
		if d > 0 {
			w.lease = d
		}
	}
}

func WithPolling(interval time.Duration, batchSize int) Option {
	return func(w *WebhookWorker) {
		if interval > 0 {
			w.pollInterval = interval
		}
		if batchSize > 0 {
			w.batchSize = batchSize
		}
	}
}

// NewWebhookWorker builds a worker with sane defaults. redisClient may be nil.
func NewWebhookWorker(repo domain.OutboxRepository, sender Deliverer, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger, opts ...Option) *WebhookWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 5 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "webhook-worker").Logger()

	w := &WebhookWorker{
		repo:          repo,
		sender:        sender,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan int64, models.WorkerQueueSize),
		redisQueueKey: "webhooks:queue",
		deadLetterKey: "webhooks:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		lease:         2 * models.WebhookTimeout,
		logger:        &l,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Notify schedules committed outbox rows for prompt delivery. Ids that do not
// fit anywhere are left to the poller.
func (w *WebhookWorker) Notify(ctx context.Context, taskIDs ...int64) {
	for _, id := range taskIDs {
		if w.redis != nil {
			err := w.redis.LPush(ctx, w.redisQueueKey, id).Err()
			if err == nil {
				continue
			}
			w.logger.Warn().Err(err).Int64("task_id", id).Msg("Redis push failed, fallback to memory queue")
		}

		select {
		case w.queue <- id:
		default:
			w.logger.Warn().Int64("task_id", id).Msg("In-memory queue full, task left to polling")
		}
	}
}

// Start runs the delivery loop until ctx is done.
func (w *WebhookWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("Webhook worker started")
	defer w.logger.Info().Msg("Webhook worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if id, ok := w.tryLocalQueue(); ok {
			w.processTaskID(ctx, id)
			continue
		}

		if id, ok := w.tryRedis(ctx); ok {
			w.processTaskID(ctx, id)
			continue
		}

		if n := w.ProcessPending(ctx); n == 0 {
			w.sleep(ctx, w.pollInterval)
		}
	}
}

// ProcessPending delivers one batch of due rows and returns how many it handled.
func (w *WebhookWorker) ProcessPending(ctx context.Context) int {
	tasks, err := w.repo.GetPendingWebhookTasks(ctx, w.batchSize)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error().Err(err).Msg("Fetch pending webhook tasks failed")
		}
		return 0
	}
	for i := range tasks {
		w.processTask(ctx, &tasks[i])
	}
	return len(tasks)
}

func (w *WebhookWorker) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (w *WebhookWorker) tryLocalQueue() (int64, bool) {
	select {
	case id := <-w.queue:
		return id, true
	default:
		return 0, false
	}
}

func (w *WebhookWorker) tryRedis(ctx context.Context) (int64, bool) {
	if w.redis == nil {
		return 0, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, redis.Nil) {
			return 0, false
		}
		w.logger.Error().Err(err).Msg("Redis BRPOP error")
		return 0, false
	}
	if len(res) != 2 {
		return 0, false
	}
	id, err := strconv.ParseInt(res[1], 10, 64)
	if err != nil {
		w.logger.Error().Err(err).Str("value", res[1]).Msg("Decode redis task id")
		return 0, false
	}
	return id, true
}

// processTaskID reloads the row so an id seen twice, or not yet due, is not resent.
func (w *WebhookWorker) processTaskID(ctx context.Context, id int64) {
	task, err := w.repo.GetWebhookTask(ctx, id)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", id).Msg("Load webhook task failed")
		return
	}
	if task.Status != models.TaskStatusPending && task.Status != models.TaskStatusRetry && task.Status != models.TaskStatusProcessing {
		return
	}
	w.processTask(ctx, task)
}

// processTask claims the row first; a row delivered through both the queue
// and the poller is sent once.
func (w *WebhookWorker) processTask(ctx context.Context, task *models.WebhookTask) {
	log := w.logger.With().Int64("task_id", task.ID).Int64("webhook_id", task.WebhookID).Str("event_type", task.EventType).Logger()

	claimed, err := w.repo.ClaimWebhookTask(ctx, task.ID, w.lease)
	if err != nil {
		log.Error().Err(err).Msg("Claim webhook task failed")
		return
	}
	if !claimed {
		log.Debug().Msg("Webhook task not claimable")
		return
	}

	hook, err := w.repo.GetWebhook(ctx, task.WebhookID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !hook.Active) {
		w.markDone(ctx, task, models.TaskStatusSkipped, "webhook removed or inactive")
		metrics.IncWebhook("skipped")
		return
	}
	if err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.sender.Send(ctx, hook, task.EventType, []byte(task.Payload)); err != nil {
		log.Warn().Err(err).Int("attempt", task.RetryCount+1).Str("url", hook.URL).Msg("Webhook delivery failed")
		w.retryOrFail(ctx, task, err)
		return
	}

	w.markDone(ctx, task, models.TaskStatusCompleted, "")
	metrics.IncWebhook("delivered")
	log.Debug().Str("url", hook.URL).Msg("Webhook delivered")
}

func (w *WebhookWorker) retryOrFail(ctx context.Context, task *models.WebhookTask, cause error) {
	attempt := task.RetryCount + 1
	if w.retryPolicy.Exhausted(attempt) {
		w.markDone(ctx, task, models.TaskStatusFailed, cause.Error())
		w.pushDeadLetter(ctx, task)
		metrics.IncWebhook("failed")
		w.logger.Error().Err(cause).Int64("task_id", task.ID).Int("attempts", attempt).Msg("Webhook delivery gave up")
		return
	}

	nextTime := time.Now().UTC().Add(w.retryPolicy.NextDelay(attempt))
	if err := w.repo.UpdateWebhookTaskStatus(ctx, task.ID, models.TaskStatusRetry, cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Mark retry failed")
	}
	metrics.IncWebhook("retry")
}

func (w *WebhookWorker) markDone(ctx context.Context, task *models.WebhookTask, status, msg string) {
	if err := w.repo.UpdateWebhookTaskStatus(ctx, task.ID, status, msg, nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Str("status", status).Msg("Update webhook task failed")
	}
}

func (w *WebhookWorker) pushDeadLetter(ctx context.Context, task *models.WebhookTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Encode deadletter")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Deadletter push failed")
	}
}
