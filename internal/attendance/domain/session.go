package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL is how long a session accepts codes.
const DefaultSessionTTL = 180 * time.Second

// SessionStatus is the lifecycle position of an attendance session.
type SessionStatus string

const (
	SessionIdle   SessionStatus = "idle"
	SessionActive SessionStatus = "active"
	SessionClosed SessionStatus = "closed"
)

// SessionState is a session's full state. The zero value is Idle.
type SessionState struct {
	Status    SessionStatus
	Date      string
	Code      string
	StartedAt time.Time
	EndsAt    time.Time
	Attendees []uuid.UUID
}

// IsActive reports whether the session is accepting codes or awaiting
// finalization.
func (s SessionState) IsActive() bool {
	return s.Status == SessionActive
}

// Expired reports whether an active session has run out of time.
func (s SessionState) Expired(now time.Time) bool {
	return s.IsActive() && !now.Before(s.EndsAt)
}

// Remaining is the time left before the session closes, never negative.
func (s SessionState) Remaining(now time.Time) time.Duration {
	if !s.IsActive() {
		return 0
	}
	return max(0, s.EndsAt.Sub(now))
}

// HasAttendee reports whether userID already checked in.
func (s SessionState) HasAttendee(userID uuid.UUID) bool {
	return slices.Contains(s.Attendees, userID)
}

// SessionEvent is an input to Transition.
type SessionEvent interface {
	sessionEvent()
}

// StartSession opens a session for Date.
type StartSession struct {
	Date string
	Code string
	Now  time.Time
	TTL  time.Duration
}

// SubmitCode records a participant's check-in.
type SubmitCode struct {
	ParticipantID uuid.UUID
	Code          string
	Now           time.Time
}

// EndSession is the owner closing the session.
type EndSession struct {
	Now time.Time
}

// ExpireSession is an observer noticing the deadline passed.
type ExpireSession struct {
	Now time.Time
}

func (StartSession) sessionEvent()  {}
func (SubmitCode) sessionEvent()    {}
func (EndSession) sessionEvent()    {}
func (ExpireSession) sessionEvent() {}

// Effect is an observable outcome of a transition.
type Effect interface {
	effect()
}

// SessionOpened is produced when a session starts.
type SessionOpened struct {
	Date      string
	Code      string
	StartedAt time.Time
	EndsAt    time.Time
}

// AttendeeAdded is produced when a new participant checks in.
type AttendeeAdded struct {
	ParticipantID uuid.UUID
	At            time.Time
}

// SessionFinalized is produced exactly once per session, on close.
type SessionFinalized struct {
	Date        string
	StartedAt   time.Time
	FinalizedAt time.Time
	Attendees   []uuid.UUID
}

func (SessionOpened) effect()    {}
func (AttendeeAdded) effect()    {}
func (SessionFinalized) effect() {}

// Step is the result of applying one event.
type Step struct {
	Next    SessionState
	Effects []Effect
}

func unchanged(state SessionState) Step {
	return Step{Next: state}
}

// Transition applies event to state. It has no side effects; duplicate
// submissions and repeated closes return the state unchanged.
func Transition(state SessionState, event SessionEvent) (Step, error) {
	if state.Status == "" {
		state.Status = SessionIdle
	}

	switch e := event.(type) {
	case StartSession:
		if state.IsActive() {
			return unchanged(state), nil
		}
		ttl := e.TTL
		if ttl <= 0 {
			ttl = DefaultSessionTTL
		}
		next := SessionState{
			Status:    SessionActive,
			Date:      e.Date,
			Code:      e.Code,
			StartedAt: e.Now,
			EndsAt:    e.Now.Add(ttl),
			Attendees: []uuid.UUID{},
		}
		return Step{Next: next, Effects: []Effect{SessionOpened{
			Date: next.Date, Code: next.Code, StartedAt: next.StartedAt, EndsAt: next.EndsAt,
		}}}, nil

	case SubmitCode:
		if !state.IsActive() || state.Expired(e.Now) {
			return unchanged(state), ErrSessionNotActive
		}
		if !codesMatch(state.Code, e.Code) {
			return unchanged(state), ErrCodeMismatch
		}
		if state.HasAttendee(e.ParticipantID) {
			return unchanged(state), nil
		}
		next := state
		next.Attendees = append(slices.Clone(state.Attendees), e.ParticipantID)
		return Step{Next: next, Effects: []Effect{AttendeeAdded{ParticipantID: e.ParticipantID, At: e.Now}}}, nil

	case EndSession:
		if !state.IsActive() {
			return unchanged(state), nil
		}
		return finalize(state, e.Now), nil

	case ExpireSession:
		if !state.Expired(e.Now) {
			return unchanged(state), nil
		}
		return finalize(state, e.Now), nil

	default:
		return unchanged(state), nil
	}
}

func finalize(state SessionState, now time.Time) Step {
	next := state
	next.Status = SessionClosed
	next.Code = ""
	next.Attendees = slices.Clone(state.Attendees)
	return Step{Next: next, Effects: []Effect{SessionFinalized{
		Date:        state.Date,
		StartedAt:   state.StartedAt,
		FinalizedAt: now,
		Attendees:   slices.Clone(state.Attendees),
	}}}
}
