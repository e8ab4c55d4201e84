// Package schedules answers schedule lookups from the meetings store.
package schedules

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/huddle/internal/calendar/domain"
	meetingDomain "github.com/felixgeelhaar/huddle/internal/meetings/domain"
	"github.com/google/uuid"
)

// MeetingLookup implements subscribers.ScheduleLookup.
type MeetingLookup struct {
	meetings meetingDomain.Repository
}

// NewMeetingLookup creates a lookup over the meeting repository.
func NewMeetingLookup(meetings meetingDomain.Repository) *MeetingLookup {
	return &MeetingLookup{meetings: meetings}
}

// CurrentScheduleID returns the meeting's schedule of the given kind. A
// deleted meeting has none.
func (l *MeetingLookup) CurrentScheduleID(ctx context.Context, meetingID uuid.UUID, source domain.Source) (uuid.UUID, bool, error) {
	meeting, err := l.meetings.FindByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, meetingDomain.ErrMeetingNotFound) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}

	switch source {
	case domain.SourceSuggested:
		if s := meeting.SuggestedSchedule(); s != nil {
			return s.ID, true, nil
		}
	case domain.SourceRecurring:
		if r := meeting.RecurringSchedule(); r != nil {
			return r.ID, true, nil
		}
	default:
		return uuid.Nil, false, domain.ErrInvalidSource
	}
	return uuid.Nil, false, nil
}
