package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/huddle/internal/shared/domain"
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// Message is one outbox row. Payload is the complete bus envelope, so a
// consumer decodes it as an eventbus.ConsumedEvent whichever bus carried it.
type Message struct {
	ID            int64
	EventID       uuid.UUID
	AggregateType string
	AggregateID   uuid.UUID
	RoutingKey    string
	Payload       json.RawMessage
	CreatedAt     time.Time

	PublishedAt *time.Time
	NextRetryAt *time.Time
	RetryCount  int
	LastError   *string

	DeadLetteredAt   *time.Time
	DeadLetterReason *string
}

// NewMessage serializes event into its envelope.
func NewMessage(event domain.DomainEvent) (*Message, error) {
	envelope, err := envelopeFor(event)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", event.RoutingKey(), err)
	}
	return &Message{
		EventID:       envelope.EventID,
		AggregateType: envelope.AggregateType,
		AggregateID:   envelope.AggregateID,
		RoutingKey:    envelope.RoutingKey,
		Payload:       payload,
		CreatedAt:     envelope.OccurredAt,
	}, nil
}

// NewMessages converts a whole batch or fails on the first bad event.
func NewMessages(events []domain.DomainEvent) ([]*Message, error) {
	msgs := make([]*Message, len(events))
	for i, event := range events {
		msg, err := NewMessage(event)
		if err != nil {
			return nil, err
		}
		msgs[i] = msg
	}
	return msgs, nil
}

// Metadata returns the envelope's tracing fields, or the zero value when
// the payload is not an envelope.
func (m *Message) Metadata() eventbus.EventMetadata {
	var envelope struct {
		Metadata eventbus.EventMetadata `json:"metadata"`
	}
	_ = json.Unmarshal(m.Payload, &envelope)
	return envelope.Metadata
}

func envelopeFor(event domain.DomainEvent) (eventbus.ConsumedEvent, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return eventbus.ConsumedEvent{}, fmt.Errorf("encode %s: %w", event.RoutingKey(), err)
	}
	meta := event.Metadata()
	return eventbus.ConsumedEvent{
		EventID:       event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		RoutingKey:    event.RoutingKey(),
		OccurredAt:    event.OccurredAt(),
		Payload:       body,
		Metadata: eventbus.EventMetadata{
			UserID:        meta.UserID,
			CorrelationID: optionalID(meta.CorrelationID),
			CausationID:   optionalID(meta.CausationID),
		},
	}, nil
}

func optionalID(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}
