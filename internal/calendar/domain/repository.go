package domain

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists personal events.
type Repository interface {
	// SaveBatch inserts events, skipping any whose ID already exists. It
	// returns how many were new.
	SaveBatch(ctx context.Context, events []PersonalEvent) (int, error)
	// DeleteByTag removes every event of a meeting from one source.
	DeleteByTag(ctx context.Context, meetingID uuid.UUID, source Source) (int, error)
	// ListForUser returns a user's events with from <= date <= to, by date
	// and start time. Empty bounds are open.
	ListForUser(ctx context.Context, userID uuid.UUID, from, to string) ([]PersonalEvent, error)
	ListByTag(ctx context.Context, meetingID uuid.UUID, source Source) ([]PersonalEvent, error)
}
