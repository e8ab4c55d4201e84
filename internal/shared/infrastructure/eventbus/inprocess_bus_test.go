package eventbus_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/huddle/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(t *testing.T, routingKey string, body any) []byte {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	data, err := json.Marshal(eventbus.ConsumedEvent{
		EventID:       uuid.New(),
		AggregateID:   uuid.New(),
		AggregateType: "Meeting",
		RoutingKey:    routingKey,
		OccurredAt:    time.Now().UTC(),
		Payload:       payload,
	})
	require.NoError(t, err)
	return data
}

func TestInProcessEventBus_Publish(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(nil)
	consumer := &mockConsumer{eventTypes: []string{committedKey}}
	bus.RegisterConsumer(consumer)

	err := bus.Publish(context.Background(), committedKey, envelope(t, committedKey, map[string]string{"title": "Study group"}))
	require.NoError(t, err)

	require.Len(t, consumer.events, 1)
	assert.Equal(t, "Meeting", consumer.events[0].AggregateType)
	assert.JSONEq(t, `{"title":"Study group"}`, string(consumer.events[0].Payload))
	assert.Equal(t, 1, bus.Registry().Len())
}

func TestInProcessEventBus_ConsumerErrorIsReturned(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(nil)
	storeErr := errors.New("store down")
	bus.RegisterConsumer(&mockConsumer{eventTypes: []string{committedKey}, err: storeErr})

	err := bus.Publish(context.Background(), committedKey, envelope(t, committedKey, map[string]string{}))
	assert.ErrorIs(t, err, storeErr)
}

func TestInProcessEventBus_InvalidEnvelopeDropped(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(nil)
	consumer := &mockConsumer{eventTypes: []string{committedKey}}
	bus.RegisterConsumer(consumer)

	assert.NoError(t, bus.Publish(context.Background(), committedKey, []byte("not json")))
	assert.Empty(t, consumer.events)
	assert.NoError(t, bus.Close())
}

func TestInProcessEventBus_RoutingKeyFallback(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(nil)
	consumer := &mockConsumer{eventTypes: []string{removedKey}}
	bus.RegisterConsumer(consumer)

	data, err := json.Marshal(map[string]any{"event_id": uuid.New(), "payload": map[string]any{}})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), removedKey, data))
	assert.Len(t, consumer.events, 1)
}

type correlationRecorder struct {
	got string
}

func (c *correlationRecorder) EventTypes() []string { return []string{committedKey} }

func (c *correlationRecorder) Handle(ctx context.Context, _ *eventbus.ConsumedEvent) error {
	c.got = observability.CorrelationIDFromContext(ctx)
	return nil
}

func TestInProcessEventBus_PropagatesCorrelation(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(nil)
	rec := &correlationRecorder{}
	bus.RegisterConsumer(rec)

	data, err := json.Marshal(eventbus.ConsumedEvent{
		EventID:    uuid.New(),
		RoutingKey: committedKey,
		Payload:    json.RawMessage(`{}`),
		Metadata:   eventbus.EventMetadata{CorrelationID: "corr-42"},
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), committedKey, data))
	assert.Equal(t, "corr-42", rec.got)
}
