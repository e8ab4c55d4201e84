package domain

import (
	"slices"
	"sort"
	"time"

	sharedDomain "github.com/felixgeelhaar/huddle/internal/shared/domain"
	"github.com/google/uuid"
)

// DateLayout is the calendar date format of sessions and records.
const DateLayout = "2006-01-02"

// Register is a meeting's attendance aggregate: the current session, if
// any, and one immutable record per finalized date. Its ID is the meeting ID.
type Register struct {
	sharedDomain.BaseAggregateRoot
	session *SessionState
	history map[string]HistoryRecord
	unsaved []string
}

// NewRegister creates an empty register for a meeting.
func NewRegister(meetingID uuid.UUID) *Register {
	return &Register{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRootWithID(meetingID),
		history:           make(map[string]HistoryRecord),
	}
}

// MeetingID returns the meeting the register belongs to.
func (r *Register) MeetingID() uuid.UUID { return r.ID() }

// Session returns the open session, or nil.
func (r *Register) Session() *SessionState {
	if r.session == nil {
		return nil
	}
	s := *r.session
	s.Attendees = slices.Clone(r.session.Attendees)
	return &s
}

// History returns every record, newest date first.
func (r *Register) History() []HistoryRecord {
	records := make([]HistoryRecord, 0, len(r.history))
	for _, rec := range r.history {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date > records[j].Date })
	return records
}

// Record returns the record for date.
func (r *Register) Record(date string) (HistoryRecord, bool) {
	rec, ok := r.history[date]
	return rec, ok
}

// CompletedOn reports whether date is finalized and nothing is active.
func (r *Register) CompletedOn(date string) bool {
	_, ok := r.history[date]
	return ok && r.session == nil
}

// UnsavedRecords returns records finalized since the register was loaded.
func (r *Register) UnsavedRecords() []HistoryRecord {
	records := make([]HistoryRecord, 0, len(r.unsaved))
	for _, date := range r.unsaved {
		records = append(records, r.history[date])
	}
	return records
}

// MarkSaved forgets which records are new.
func (r *Register) MarkSaved() {
	r.unsaved = nil
}

func (r *Register) state() SessionState {
	if r.session == nil {
		return SessionState{Status: SessionIdle}
	}
	return *r.session
}

// apply runs one transition and folds its effects into the register.
func (r *Register) apply(event SessionEvent, roster []uuid.UUID) (*HistoryRecord, error) {
	step, err := Transition(r.state(), event)
	if err != nil {
		return nil, err
	}

	var finalized *HistoryRecord
	for _, eff := range step.Effects {
		switch e := eff.(type) {
		case SessionOpened:
			r.AddDomainEvent(NewSessionStarted(r.ID(), e))
		case AttendeeAdded:
			r.AddDomainEvent(NewAttendeeCheckedIn(r.ID(), step.Next.Date, e))
		case SessionFinalized:
			record := NewHistoryRecord(r.ID(), e, roster)
			r.history[record.Date] = record
			r.unsaved = append(r.unsaved, record.Date)
			r.AddDomainEvent(NewSessionFinalizedEvent(record))
			finalized = &record
		}
	}

	if len(step.Effects) > 0 {
		r.Touch()
	}
	if step.Next.Status == SessionActive {
		next := step.Next
		r.session = &next
	} else {
		r.session = nil
	}
	return finalized, nil
}

// Start opens a session for date. An unexpired session for the same date is
// returned as is; any other open session is finalized first. A date that
// already has a record can never be reopened.
func (r *Register) Start(actor, ownerID uuid.UUID, date string, now time.Time, ttl time.Duration, codes CodeGenerator, roster []uuid.UUID) (SessionState, error) {
	if actor != ownerID {
		return SessionState{}, ErrNotOwner
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return SessionState{}, ErrInvalidDate
	}

	if r.session != nil {
		if r.session.Date == date && !r.session.Expired(now) {
			return *r.Session(), nil
		}
		if _, err := r.apply(EndSession{Now: now}, roster); err != nil {
			return SessionState{}, err
		}
	}

	if _, ok := r.history[date]; ok {
		return SessionState{}, ErrAlreadyFinalizedToday
	}

	code, err := codes.Generate()
	if err != nil {
		return SessionState{}, err
	}
	if _, err := r.apply(StartSession{Date: date, Code: code, Now: now, TTL: ttl}, roster); err != nil {
		return SessionState{}, err
	}
	return *r.Session(), nil
}

// Submit checks participantID in. A session past its deadline is finalized
// and ErrSessionNotActive returned; the caller must still persist the
// register so the finalize is not lost.
func (r *Register) Submit(participantID uuid.UUID, code string, now time.Time, roster []uuid.UUID) error {
	if r.session == nil {
		return ErrSessionNotActive
	}
	if r.session.Expired(now) {
		if _, err := r.apply(ExpireSession{Now: now}, roster); err != nil {
			return err
		}
		return ErrSessionNotActive
	}
	if !slices.Contains(roster, participantID) {
		return ErrNotParticipant
	}
	_, err := r.apply(SubmitCode{ParticipantID: participantID, Code: code, Now: now}, roster)
	return err
}

// End closes the open session on the owner's request. Ending with nothing
// open is a no-op.
func (r *Register) End(actor, ownerID uuid.UUID, now time.Time, roster []uuid.UUID) (*HistoryRecord, error) {
	if actor != ownerID {
		return nil, ErrNotOwner
	}
	return r.apply(EndSession{Now: now}, roster)
}

// ExpireIfDue finalizes the open session once its deadline has passed.
func (r *Register) ExpireIfDue(now time.Time, roster []uuid.UUID) (*HistoryRecord, error) {
	return r.apply(ExpireSession{Now: now}, roster)
}

// RehydrateRegister recreates a register from persisted state.
func RehydrateRegister(meetingID uuid.UUID, session *SessionState, records []HistoryRecord, version int, updatedAt time.Time) *Register {
	baseEntity := sharedDomain.RehydrateBaseEntity(meetingID, updatedAt, updatedAt)
	history := make(map[string]HistoryRecord, len(records))
	for _, rec := range records {
		history[rec.Date] = rec
	}
	return &Register{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(baseEntity, version),
		session:           session,
		history:           history,
	}
}
