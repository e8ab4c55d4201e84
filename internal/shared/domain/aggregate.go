package domain

import "github.com/google/uuid"

// BaseAggregateRoot buffers the events an aggregate raises until the
// command handler moves them into the outbox, and tracks the version used
// for optimistic concurrency on save.
type BaseAggregateRoot struct {
	BaseEntity
	events  []DomainEvent
	version int
}

func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity()}
}

// NewBaseAggregateRootWithID creates an aggregate whose identity is
// derived elsewhere, such as a register keyed by its meeting.
func NewBaseAggregateRootWithID(id uuid.UUID) BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: newBaseEntity(id)}
}

// RehydrateBaseAggregateRoot restores an aggregate at a stored version
// with no pending events.
func RehydrateBaseAggregateRoot(entity BaseEntity, version int) BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: entity, version: version}
}

// DomainEvents returns the events raised since the last clear.
func (a *BaseAggregateRoot) DomainEvents() []DomainEvent {
	return a.events
}

func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.events = nil
}

func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.events = append(a.events, event)
}

func (a *BaseAggregateRoot) Version() int {
	return a.version
}

// IncrementVersion is called by repositories after a successful save.
func (a *BaseAggregateRoot) IncrementVersion() {
	a.version++
}
