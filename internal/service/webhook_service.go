package service

import (
	"context"
	"strings"

	"provider/internal/domain"
	"provider/internal/models"
	"provider/internal/webhook"

	"github.com/rs/zerolog"
)

type WebhookService struct {
	repo      domain.Repository
	validator *Validator
	logger    *zerolog.Logger
}

func NewWebhookService(repo domain.Repository, logger *zerolog.Logger) *WebhookService {
	return &WebhookService{
		repo:      repo,
		validator: NewValidator(),
		logger:    componentLogger(logger, "webhook-service"),
	}
}

// Register subscribes a client URL. Event types default to listing_updated and
// a secret is generated when none is given. The same client and URL twice is a Conflict.
func (s *WebhookService) Register(ctx context.Context, hook *models.ClientWebhook) error {
	hook.ClientID = strings.TrimSpace(hook.ClientID)
	hook.URL = strings.TrimSpace(hook.URL)
	if len(hook.EventTypes) == 0 {
		hook.EventTypes = []string{models.EventListingUpdated}
	}
	hook.EventTypes = dedupe(hook.EventTypes)
	if err := s.validator.Struct(hook); err != nil {
		return err
	}
	if hook.SecretToken == "" {
		hook.SecretToken = webhook.GenerateSecret()
	}
	hook.Active = true

	if err := s.repo.CreateWebhook(ctx, hook); err != nil {
		return err
	}
	s.logger.Info().Int64("webhook_id", hook.ID).Str("client_id", hook.ClientID).Strs("event_types", hook.EventTypes).Msg("webhook registered")
	return nil
}

func (s *WebhookService) ListClientWebhooks(ctx context.Context, clientID string) ([]*models.ClientWebhook, error) {
	hooks, err := s.repo.GetClientWebhooks(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if len(hooks) == 0 {
		return nil, domain.NotFoundf("no webhooks for client %s", clientID)
	}
	return hooks, nil
}

// Delete removes the subscription. Pending deliveries for it are skipped by the worker.
func (s *WebhookService) Delete(ctx context.Context, id int64) error {
	return s.repo.DeleteWebhook(ctx, id)
}

// FailedDeliveries lists outbox rows the worker gave up on, newest first.
func (s *WebhookService) FailedDeliveries(ctx context.Context) ([]models.WebhookTask, error) {
	tasks, err := s.repo.GetFailedWebhookTasks(ctx)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.WebhookTask{}
	}
	return tasks, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
