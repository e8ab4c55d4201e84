package domain

import (
	sharedDomain "github.com/felixgeelhaar/huddle/internal/shared/domain"
	"github.com/google/uuid"
)

const aggregateType = "Meeting"

// Routing keys published by the meetings context.
const (
	RoutingKeyMeetingCreated             = "meetings.meeting.created"
	RoutingKeyJoinRequested              = "meetings.participant.requested"
	RoutingKeyParticipantApproved        = "meetings.participant.approved"
	RoutingKeyParticipantRemoved         = "meetings.participant.removed"
	RoutingKeyStatusChanged              = "meetings.status.changed"
	RoutingKeyAvailabilityUpdated        = "meetings.availability.updated"
	RoutingKeySuggestedScheduleCommitted = "meetings.suggested_schedule.committed"
	RoutingKeySuggestedScheduleRemoved   = "meetings.suggested_schedule.removed"
	RoutingKeyRecurringScheduleSet       = "meetings.recurring_schedule.set"
	RoutingKeyRecurringScheduleRemoved   = "meetings.recurring_schedule.removed"
)

// MeetingCreated is emitted when a meeting is created.
type MeetingCreated struct {
	sharedDomain.BaseEvent
	MeetingID uuid.UUID `json:"meeting_id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Title     string    `json:"title"`
}

// NewMeetingCreated creates a MeetingCreated event.
func NewMeetingCreated(m *Meeting) *MeetingCreated {
	return &MeetingCreated{
		BaseEvent: sharedDomain.NewBaseEvent(m.ID(), aggregateType, RoutingKeyMeetingCreated),
		MeetingID: m.ID(),
		OwnerID:   m.OwnerID(),
		Title:     m.Title(),
	}
}

// JoinRequested is emitted when a user asks to join.
type JoinRequested struct {
	sharedDomain.BaseEvent
	MeetingID uuid.UUID `json:"meeting_id"`
	UserID    uuid.UUID `json:"user_id"`
}

// NewJoinRequested creates a JoinRequested event.
func NewJoinRequested(m *Meeting, userID uuid.UUID) *JoinRequested {
	return &JoinRequested{
		BaseEvent: sharedDomain.NewBaseEvent(m.ID(), aggregateType, RoutingKeyJoinRequested),
		MeetingID: m.ID(),
		UserID:    userID,
	}
}

// ParticipantApproved is emitted when the owner approves a join request.
type ParticipantApproved struct {
	sharedDomain.BaseEvent
	MeetingID uuid.UUID `json:"meeting_id"`
	UserID    uuid.UUID `json:"user_id"`
}

// NewParticipantApproved creates a ParticipantApproved event.
func NewParticipantApproved(m *Meeting, userID uuid.UUID) *ParticipantApproved {
	return &ParticipantApproved{
		BaseEvent: sharedDomain.NewBaseEvent(m.ID(), aggregateType, RoutingKeyParticipantApproved),
		MeetingID: m.ID(),
		UserID:    userID,
	}
}

// ParticipantRemoved is emitted when a participant leaves, cancels or is rejected.
type ParticipantRemoved struct {
	sharedDomain.BaseEvent
	MeetingID uuid.UUID `json:"meeting_id"`
	UserID    uuid.UUID `json:"user_id"`
	Reason    string    `json:"reason"`
}

// NewParticipantRemoved creates a ParticipantRemoved event.
func NewParticipantRemoved(m *Meeting, userID uuid.UUID, reason string) *ParticipantRemoved {
	return &ParticipantRemoved{
		BaseEvent: sharedDomain.NewBaseEvent(m.ID(), aggregateType, RoutingKeyParticipantRemoved),
		MeetingID: m.ID(),
		UserID:    userID,
		Reason:    reason,
	}
}

// StatusChanged is emitted when the recruitment status changes.
type StatusChanged struct {
	sharedDomain.BaseEvent
	MeetingID uuid.UUID         `json:"meeting_id"`
	Previous  RecruitmentStatus `json:"previous"`
	Current   RecruitmentStatus `json:"current"`
}

// NewStatusChanged creates a StatusChanged event.
func NewStatusChanged(m *Meeting, previous RecruitmentStatus) *StatusChanged {
	return &StatusChanged{
		BaseEvent: sharedDomain.NewBaseEvent(m.ID(), aggregateType, RoutingKeyStatusChanged),
		MeetingID: m.ID(),
		Previous:  previous,
		Current:   m.Status(),
	}
}

// AvailabilityUpdated is emitted when a participant saves their selection.
type AvailabilityUpdated struct {
	sharedDomain.BaseEvent
	MeetingID uuid.UUID `json:"meeting_id"`
	UserID    uuid.UUID `json:"user_id"`
	SlotCount int       `json:"slot_count"`
}

// NewAvailabilityUpdated creates an AvailabilityUpdated event.
func NewAvailabilityUpdated(m *Meeting, userID uuid.UUID, slotCount int) *AvailabilityUpdated {
	return &AvailabilityUpdated{
		BaseEvent: sharedDomain.NewBaseEvent(m.ID(), aggregateType, RoutingKeyAvailabilityUpdated),
		MeetingID: m.ID(),
		UserID:    userID,
		SlotCount: slotCount,
	}
}

// SuggestedScheduleCommitted asks the calendar fan-out to create one personal
// event per roster member.
type SuggestedScheduleCommitted struct {
	sharedDomain.BaseEvent
	MeetingID      uuid.UUID    `json:"meeting_id"`
	ScheduleID     uuid.UUID    `json:"schedule_id"`
	Title          string       `json:"title"`
	ParticipantIDs []uuid.UUID  `json:"participant_ids"`
	Occurrences    []Occurrence `json:"occurrences"`
}

// NewSuggestedScheduleCommitted creates a SuggestedScheduleCommitted event.
func NewSuggestedScheduleCommitted(m *Meeting, schedule SuggestedSchedule) *SuggestedScheduleCommitted {
	return &SuggestedScheduleCommitted{
		BaseEvent:      sharedDomain.NewBaseEvent(m.ID(), aggregateType, RoutingKeySuggestedScheduleCommitted),
		MeetingID:      m.ID(),
		ScheduleID:     schedule.ID,
		Title:          m.Title(),
		ParticipantIDs: m.Roster(),
		Occurrences:    []Occurrence{schedule.Occurrence()},
	}
}

// SuggestedScheduleRemoved is emitted after the suggested schedule's
// personal events were retracted and the record cleared.
type SuggestedScheduleRemoved struct {
	sharedDomain.BaseEvent
	MeetingID  uuid.UUID `json:"meeting_id"`
	ScheduleID uuid.UUID `json:"schedule_id"`
}

// NewSuggestedScheduleRemoved creates a SuggestedScheduleRemoved event.
func NewSuggestedScheduleRemoved(m *Meeting, scheduleID uuid.UUID) *SuggestedScheduleRemoved {
	return &SuggestedScheduleRemoved{
		BaseEvent:  sharedDomain.NewBaseEvent(m.ID(), aggregateType, RoutingKeySuggestedScheduleRemoved),
		MeetingID:  m.ID(),
		ScheduleID: scheduleID,
	}
}

// RecurringScheduleSet carries the expanded occurrences of a new pattern.
type RecurringScheduleSet struct {
	sharedDomain.BaseEvent
	MeetingID      uuid.UUID    `json:"meeting_id"`
	ScheduleID     uuid.UUID    `json:"schedule_id"`
	Title          string       `json:"title"`
	Frequency      Frequency    `json:"frequency"`
	ParticipantIDs []uuid.UUID  `json:"participant_ids"`
	Occurrences    []Occurrence `json:"occurrences"`
}

// NewRecurringScheduleSet creates a RecurringScheduleSet event.
func NewRecurringScheduleSet(m *Meeting, schedule RecurringSchedule, occurrences []Occurrence) *RecurringScheduleSet {
	return &RecurringScheduleSet{
		BaseEvent:      sharedDomain.NewBaseEvent(m.ID(), aggregateType, RoutingKeyRecurringScheduleSet),
		MeetingID:      m.ID(),
		ScheduleID:     schedule.ID,
		Title:          m.Title(),
		Frequency:      schedule.Frequency,
		ParticipantIDs: m.Roster(),
		Occurrences:    occurrences,
	}
}

// RecurringScheduleRemoved is emitted after a pattern was retracted and cleared.
type RecurringScheduleRemoved struct {
	sharedDomain.BaseEvent
	MeetingID  uuid.UUID `json:"meeting_id"`
	ScheduleID uuid.UUID `json:"schedule_id"`
}

// NewRecurringScheduleRemoved creates a RecurringScheduleRemoved event.
func NewRecurringScheduleRemoved(m *Meeting, scheduleID uuid.UUID) *RecurringScheduleRemoved {
	return &RecurringScheduleRemoved{
		BaseEvent:  sharedDomain.NewBaseEvent(m.ID(), aggregateType, RoutingKeyRecurringScheduleRemoved),
		MeetingID:  m.ID(),
		ScheduleID: scheduleID,
	}
}
