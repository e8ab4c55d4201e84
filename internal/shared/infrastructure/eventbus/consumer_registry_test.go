package eventbus_test

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	committedKey = "meetings.suggested_schedule.committed"
	removedKey   = "meetings.suggested_schedule.removed"
)

type mockConsumer struct {
	eventTypes []string
	events     []*eventbus.ConsumedEvent
	err        error
}

func (m *mockConsumer) EventTypes() []string {
	return m.eventTypes
}

func (m *mockConsumer) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	m.events = append(m.events, event)
	return m.err
}

func TestConsumerRegistry_Register(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(nil)
	registry.Register(&mockConsumer{eventTypes: []string{committedKey, removedKey}})

	assert.Len(t, registry.Consumers(committedKey), 1)
	assert.Len(t, registry.Consumers(removedKey), 1)
	assert.Empty(t, registry.Consumers("attendance.session.started"))
	assert.ElementsMatch(t, []string{committedKey, removedKey}, registry.EventTypes())
	assert.Equal(t, 2, registry.Len())
}

func TestConsumerRegistry_Dispatch(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(nil)
	first := &mockConsumer{eventTypes: []string{committedKey}}
	second := &mockConsumer{eventTypes: []string{committedKey}}
	registry.Register(first)
	registry.Register(second)

	event := &eventbus.ConsumedEvent{EventID: uuid.New(), AggregateType: "Meeting", RoutingKey: committedKey}
	require.NoError(t, registry.Dispatch(context.Background(), event))

	require.Len(t, first.events, 1)
	assert.Equal(t, event.EventID, first.events[0].EventID)
	assert.Len(t, second.events, 1)
}

func TestConsumerRegistry_DispatchNoConsumers(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(nil)
	err := registry.Dispatch(context.Background(), &eventbus.ConsumedEvent{RoutingKey: "unknown.event"})
	assert.NoError(t, err)
}

func TestConsumerRegistry_DispatchJoinsErrors(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(nil)
	errA, errB := errors.New("store down"), errors.New("mirror down")
	failingA := &mockConsumer{eventTypes: []string{committedKey}, err: errA}
	healthy := &mockConsumer{eventTypes: []string{committedKey}}
	failingB := &mockConsumer{eventTypes: []string{committedKey}, err: errB}
	registry.Register(failingA)
	registry.Register(healthy)
	registry.Register(failingB)

	err := registry.Dispatch(context.Background(), &eventbus.ConsumedEvent{RoutingKey: committedKey})

	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Len(t, healthy.events, 1, "later consumers still run")
}

func TestConsumedEvent_Decode(t *testing.T) {
	event := &eventbus.ConsumedEvent{RoutingKey: committedKey, Payload: []byte(`{"schedule_id":"abc"}`)}

	var body struct {
		ScheduleID string `json:"schedule_id"`
	}
	require.NoError(t, event.Decode(&body))
	assert.Equal(t, "abc", body.ScheduleID)

	assert.Error(t, (&eventbus.ConsumedEvent{}).Decode(&body))
	assert.Error(t, (&eventbus.ConsumedEvent{Payload: []byte(`{`)}).Decode(&body))
}
