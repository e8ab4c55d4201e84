package application

import (
	"context"

	"github.com/felixgeelhaar/huddle/internal/calendar/domain"
	"github.com/google/uuid"
)

// Mirror copies personal events into an external calendar.
type Mirror interface {
	// Name identifies the mirror in logs and metrics.
	Name() string
	// Publish creates or updates events. Publishing the same event twice
	// must not duplicate it.
	Publish(ctx context.Context, events []domain.PersonalEvent) error
	// Retract deletes every mirrored event of a meeting from one source and
	// returns how many were removed.
	Retract(ctx context.Context, meetingID uuid.UUID, source domain.Source) (int, error)
}
