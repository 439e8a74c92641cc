package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"provider/internal/models"
)

// StatusError is returned when the subscriber answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook responded %d: %s", e.Code, e.Body)
}

// Sender POSTs signed payloads to subscriber URLs.
type Sender struct {
	httpClient *http.Client
	userAgent  string
}

func NewSender(timeout time.Duration) *Sender {
	if timeout <= 0 {
		timeout = models.WebhookTimeout
	}
	return &Sender{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "provider-webhooks/1.0",
	}
}

// Send delivers body to hook.URL. The signature covers the exact bytes sent.
func (s *Sender) Send(ctx context.Context, hook *models.ClientWebhook, eventType string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set(HeaderEventType, eventType)
	req.Header.Set(HeaderSignature, Sign(hook.SecretToken, body))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: string(snippet)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
