package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"interpreter-booking/internal/domain/ports/adapter"
)

// EventChannel is the pub/sub channel lifecycle events are announced on.
const EventChannel = "booking.events"

// EventBus publishes committed lifecycle events on a redis channel so
// downstream consumers (billing, statistics) can react without polling.
type EventBus struct {
	client RedisClient
	logger zerolog.Logger
}

var _ adapter.EventBus = (*EventBus)(nil)

func NewEventBus(client RedisClient, logger *zerolog.Logger) *EventBus {
	return &EventBus{
		client: client,
		logger: logger.With().Str("component", "event_bus").Logger(),
	}
}

func (b *EventBus) Publish(ctx context.Context, e adapter.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, EventChannel, payload); err != nil {
		b.logger.Warn().Err(err).Str("event", e.Name).Str("job_id", e.JobID).Msg("publish failed")
		return err
	}
	b.logger.Debug().Str("event", e.Name).Str("job_id", e.JobID).Msg("published")
	return nil
}
