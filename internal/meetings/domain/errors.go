package domain

import "errors"

var (
	ErrNotOwner              = errors.New("only the meeting owner can do this")
	ErrInvalidSlot           = errors.New("slot is outside the availability grid")
	ErrScheduleAlreadyExists = errors.New("a suggested schedule already exists for this meeting")
	ErrScheduleNotFound      = errors.New("schedule not found")
	ErrInvalidSchedule       = errors.New("invalid schedule")
	ErrInvalidSlotGrid       = errors.New("invalid slot grid")

	ErrMeetingNotFound        = errors.New("meeting not found")
	ErrMeetingEmptyTitle      = errors.New("meeting title cannot be empty")
	ErrInvalidMaxParticipants = errors.New("max participants must be at least 1")
	ErrInvalidStatus          = errors.New("invalid recruitment status")
	ErrConcurrentModification = errors.New("meeting was modified concurrently")
	ErrNotParticipant         = errors.New("user is not a participant of this meeting")
	ErrAlreadyParticipant     = errors.New("user is already a participant or has a pending request")
	ErrRecruitmentClosed      = errors.New("meeting is not recruiting")
	ErrMeetingFull            = errors.New("meeting has reached its participant limit")
	ErrJoinRequestNotFound    = errors.New("join request not found")
	ErrOwnerCannotLeave       = errors.New("the owner cannot leave the meeting")
)
