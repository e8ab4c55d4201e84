package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/huddle/internal/shared/domain"
	"github.com/google/uuid"
)

const aggregateType = "AttendanceRegister"

// Routing keys published by the attendance context.
const (
	RoutingKeySessionStarted    = "attendance.session.started"
	RoutingKeyAttendeeCheckedIn = "attendance.attendee.checked_in"
	RoutingKeySessionFinalized  = "attendance.session.finalized"
)

// SessionStarted is emitted when the owner opens a session.
type SessionStarted struct {
	sharedDomain.BaseEvent
	MeetingID uuid.UUID `json:"meeting_id"`
	Date      string    `json:"date"`
	EndsAt    time.Time `json:"ends_at"`
}

// NewSessionStarted creates a SessionStarted event. The code is not part
// of the payload.
func NewSessionStarted(meetingID uuid.UUID, opened SessionOpened) *SessionStarted {
	return &SessionStarted{
		BaseEvent: sharedDomain.NewBaseEvent(meetingID, aggregateType, RoutingKeySessionStarted),
		MeetingID: meetingID,
		Date:      opened.Date,
		EndsAt:    opened.EndsAt,
	}
}

// AttendeeCheckedIn is emitted when a participant's code is accepted.
type AttendeeCheckedIn struct {
	sharedDomain.BaseEvent
	MeetingID uuid.UUID `json:"meeting_id"`
	UserID    uuid.UUID `json:"user_id"`
	Date      string    `json:"date"`
}

// NewAttendeeCheckedIn creates an AttendeeCheckedIn event.
func NewAttendeeCheckedIn(meetingID uuid.UUID, date string, added AttendeeAdded) *AttendeeCheckedIn {
	return &AttendeeCheckedIn{
		BaseEvent: sharedDomain.NewBaseEvent(meetingID, aggregateType, RoutingKeyAttendeeCheckedIn),
		MeetingID: meetingID,
		UserID:    added.ParticipantID,
		Date:      date,
	}
}

// SessionFinalizedEvent is emitted once per date when a session closes.
type SessionFinalizedEvent struct {
	sharedDomain.BaseEvent
	MeetingID         uuid.UUID   `json:"meeting_id"`
	Date              string      `json:"date"`
	AttendeeIDs       []uuid.UUID `json:"attendee_ids"`
	TotalParticipants int         `json:"total_participants"`
	RatePercent       int         `json:"attendance_rate_percent"`
}

// NewSessionFinalizedEvent creates a SessionFinalizedEvent from a record.
func NewSessionFinalizedEvent(record HistoryRecord) *SessionFinalizedEvent {
	return &SessionFinalizedEvent{
		BaseEvent:         sharedDomain.NewBaseEvent(record.MeetingID, aggregateType, RoutingKeySessionFinalized),
		MeetingID:         record.MeetingID,
		Date:              record.Date,
		AttendeeIDs:       record.AttendeeIDs(),
		TotalParticipants: record.TotalParticipants(),
		RatePercent:       record.RatePercent(),
	}
}
