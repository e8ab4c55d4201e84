package commands

import (
	"context"

	"github.com/felixgeelhaar/huddle/internal/meetings/domain"
	"github.com/google/uuid"
)

// PersonalEventRetractor deletes the personal calendar events that a
// schedule fanned out. Implementations must be idempotent: retracting a tag
// with nothing behind it succeeds with zero.
type PersonalEventRetractor interface {
	RemovePersonalEvents(ctx context.Context, meetingID uuid.UUID, source domain.ScheduleSource) (int, error)
}
