package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists attendance registers.
type Repository interface {
	// Find loads a meeting's register, returning an empty one when the
	// meeting has no attendance yet.
	Find(ctx context.Context, meetingID uuid.UUID) (*Register, error)
	Save(ctx context.Context, register *Register) error

	// FindExpired lists meetings whose open session ended before now.
	FindExpired(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}
