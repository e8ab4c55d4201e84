// Package roster adapts the meetings context to the attendance roster port.
package roster

import (
	"context"

	"github.com/felixgeelhaar/huddle/internal/attendance/application/services"
	meetingDomain "github.com/felixgeelhaar/huddle/internal/meetings/domain"
	"github.com/google/uuid"
)

// MeetingRoster reads rosters from the meeting repository.
type MeetingRoster struct {
	meetings meetingDomain.Repository
}

// NewMeetingRoster creates a roster provider backed by meetings.
func NewMeetingRoster(meetings meetingDomain.Repository) *MeetingRoster {
	return &MeetingRoster{meetings: meetings}
}

// Roster returns the meeting's owner and its current owner-plus-approved
// members.
func (r *MeetingRoster) Roster(ctx context.Context, meetingID uuid.UUID) (services.Roster, error) {
	meeting, err := r.meetings.FindByID(ctx, meetingID)
	if err != nil {
		return services.Roster{}, err
	}
	return services.Roster{
		OwnerID: meeting.OwnerID(),
		Members: meeting.Roster(),
	}, nil
}
