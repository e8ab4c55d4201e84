package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type testAggregate struct {
	BaseAggregateRoot
}

func TestBaseAggregateRoot_EventBuffer(t *testing.T) {
	agg := &testAggregate{BaseAggregateRoot: NewBaseAggregateRoot()}
	assert.NotEqual(t, uuid.Nil, agg.ID())
	assert.Empty(t, agg.DomainEvents())

	first := NewBaseEvent(agg.ID(), "meeting", "meetings.meeting.created")
	second := NewBaseEvent(agg.ID(), "meeting", "meetings.participant.joined")
	agg.AddDomainEvent(first)
	agg.AddDomainEvent(second)

	events := agg.DomainEvents()
	assert.Len(t, events, 2)
	assert.Equal(t, "meetings.meeting.created", events[0].RoutingKey())
	assert.Equal(t, "meetings.participant.joined", events[1].RoutingKey())

	agg.ClearDomainEvents()
	assert.Empty(t, agg.DomainEvents())
}

func TestBaseAggregateRoot_Version(t *testing.T) {
	id := uuid.New()
	created := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	agg := RehydrateBaseAggregateRoot(RehydrateBaseEntity(id, created, created), 3)
	assert.Equal(t, id, agg.ID())
	assert.Equal(t, 3, agg.Version())
	assert.Empty(t, agg.DomainEvents())

	agg.IncrementVersion()
	assert.Equal(t, 4, agg.Version())

	fresh := NewBaseAggregateRootWithID(id)
	assert.Equal(t, id, fresh.ID())
	assert.Zero(t, fresh.Version())
}

func TestBaseEntity_Touch(t *testing.T) {
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.FixedZone("CET", 3600))
	entity := RehydrateBaseEntity(uuid.New(), past, past)
	assert.Equal(t, time.UTC, entity.CreatedAt().Location())

	entity.Touch()
	assert.True(t, entity.UpdatedAt().After(entity.CreatedAt()))
	assert.Equal(t, past.UTC(), entity.CreatedAt())
}

func TestBaseEvent_Metadata(t *testing.T) {
	aggregateID := uuid.New()
	event := NewBaseEvent(aggregateID, "register", "attendance.session.finalized")

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, aggregateID, event.AggregateID())
	assert.Equal(t, "register", event.AggregateType())
	assert.WithinDuration(t, time.Now(), event.OccurredAt(), time.Minute)
	assert.Equal(t, EventMetadata{}, event.Metadata())

	metadata := EventMetadata{CorrelationID: uuid.New(), CausationID: uuid.New(), UserID: uuid.New()}
	event.SetMetadata(metadata)
	assert.Equal(t, metadata, event.Metadata())
}
