package domain

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for meeting persistence.
type Repository interface {
	// Save persists the meeting, its roster and schedules. Availability is
	// written separately through ReplaceAvailability.
	Save(ctx context.Context, meeting *Meeting) error
	FindByID(ctx context.Context, id uuid.UUID) (*Meeting, error)
	FindByParticipant(ctx context.Context, userID uuid.UUID) ([]*Meeting, error)
	FindOpen(ctx context.Context, limit int) ([]*Meeting, error)

	// ReplaceAvailability overwrites one participant's selection without
	// touching anyone else's.
	ReplaceAvailability(ctx context.Context, meetingID, userID uuid.UUID, slots []SlotID) error
}
