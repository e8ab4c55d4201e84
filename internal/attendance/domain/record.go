package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// MemberAttendance is one roster member's outcome in a finalized session.
type MemberAttendance struct {
	UserID   uuid.UUID `json:"user_id"`
	Attended bool      `json:"attended"`
}

// HistoryRecord is the immutable outcome of one session. Members holds the
// roster as it was when the session closed.
type HistoryRecord struct {
	ID          uuid.UUID
	MeetingID   uuid.UUID
	Date        string
	StartedAt   time.Time
	FinalizedAt time.Time
	Members     []MemberAttendance
}

// NewHistoryRecord snapshots roster against the session's attendees.
// Attendees no longer on the roster are not recorded.
func NewHistoryRecord(meetingID uuid.UUID, finalized SessionFinalized, roster []uuid.UUID) HistoryRecord {
	attended := make(map[uuid.UUID]bool, len(finalized.Attendees))
	for _, id := range finalized.Attendees {
		attended[id] = true
	}

	members := make([]MemberAttendance, 0, len(roster))
	for _, id := range roster {
		members = append(members, MemberAttendance{UserID: id, Attended: attended[id]})
	}

	return HistoryRecord{
		ID:          uuid.New(),
		MeetingID:   meetingID,
		Date:        finalized.Date,
		StartedAt:   finalized.StartedAt,
		FinalizedAt: finalized.FinalizedAt,
		Members:     members,
	}
}

// TotalParticipants is the roster size at close.
func (r HistoryRecord) TotalParticipants() int {
	return len(r.Members)
}

// AttendeeIDs lists the members who checked in, in roster order.
func (r HistoryRecord) AttendeeIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Members))
	for _, m := range r.Members {
		if m.Attended {
			ids = append(ids, m.UserID)
		}
	}
	return ids
}

// AttendedCount is the number of members who checked in.
func (r HistoryRecord) AttendedCount() int {
	return len(r.AttendeeIDs())
}

// Attended reports whether userID checked in.
func (r HistoryRecord) Attended(userID uuid.UUID) bool {
	for _, m := range r.Members {
		if m.UserID == userID {
			return m.Attended
		}
	}
	return false
}

// RatePercent is the rounded share of the roster that attended.
func (r HistoryRecord) RatePercent() int {
	return ratePercent(r.AttendedCount(), r.TotalParticipants())
}

func ratePercent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
