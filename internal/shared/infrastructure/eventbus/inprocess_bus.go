package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/huddle/pkg/observability"
)

// InProcessEventBus is the Publisher used when no broker is configured:
// the outbox processor hands it an envelope and it calls the registered
// consumers before returning.
type InProcessEventBus struct {
	registry *ConsumerRegistry
	logger   *slog.Logger
}

func NewInProcessEventBus(logger *slog.Logger) *InProcessEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessEventBus{registry: NewConsumerRegistry(logger), logger: logger}
}

func (b *InProcessEventBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

// Publish dispatches synchronously. Consumer errors come back to the outbox
// so it retries; an envelope that does not decode is logged and dropped,
// since no retry will change it.
func (b *InProcessEventBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	event, err := decodeEnvelope(routingKey, payload)
	if err != nil {
		b.logger.ErrorContext(ctx, "dropping event", observability.ErrorKey, err)
		return nil
	}
	ctx = event.dispatchContext(ctx)

	start := time.Now()
	if err := b.registry.Dispatch(ctx, event); err != nil {
		return fmt.Errorf("dispatch %s: %w", event.RoutingKey, err)
	}
	b.logger.DebugContext(ctx, "event dispatched",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		observability.DurationKey, time.Since(start).Milliseconds(),
	)
	return nil
}

func (b *InProcessEventBus) Close() error { return nil }

func (b *InProcessEventBus) Registry() *ConsumerRegistry {
	return b.registry
}
