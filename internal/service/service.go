// Package service holds the provider use cases. Handlers call services;
// services call the store, the quote engine and the webhook outbox.
package service

import (
	"provider/internal/domain"
	"provider/internal/logging"

	"github.com/rs/zerolog"
)

func componentLogger(logger *zerolog.Logger, name string) *zerolog.Logger {
	return logging.Component(logger, name)
}

// publish sends a domain event after commit. Failures are logged only.
func publish(bus domain.EventPublisher, logger *zerolog.Logger, eventType string, payload interface{}) {
	if bus == nil {
		return
	}
	if err := bus.PublishJSON(eventType, payload); err != nil {
		logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}
