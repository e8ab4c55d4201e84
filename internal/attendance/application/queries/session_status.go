package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/huddle/internal/attendance/application/services"
	"github.com/felixgeelhaar/huddle/internal/attendance/domain"
	"github.com/google/uuid"
)

// GetSessionStatusQuery asks for the live state of a meeting's session.
type GetSessionStatusQuery struct {
	MeetingID uuid.UUID
	UserID    uuid.UUID
}

// SessionStatusDTO is what a client polls while a session is open. The
// code is only shown to the owner.
type SessionStatusDTO struct {
	Active           bool        `json:"active"`
	Date             string      `json:"date,omitempty"`
	Code             string      `json:"code,omitempty"`
	EndsAt           *time.Time  `json:"ends_at,omitempty"`
	RemainingSeconds int         `json:"remaining_seconds"`
	Attendees        []uuid.UUID `json:"attendees"`
	CheckedIn        bool        `json:"checked_in"`
	CompletedToday   bool        `json:"completed_today"`
}

// GetSessionStatusHandler handles the GetSessionStatusQuery.
type GetSessionStatusHandler struct {
	repo     domain.Repository
	rosters  services.RosterProvider
	location *time.Location
	now      func() time.Time
}

// NewGetSessionStatusHandler creates a new GetSessionStatusHandler.
func NewGetSessionStatusHandler(repo domain.Repository, rosters services.RosterProvider, location *time.Location) *GetSessionStatusHandler {
	if location == nil {
		location = time.Local
	}
	return &GetSessionStatusHandler{repo: repo, rosters: rosters, location: location, now: time.Now}
}

// Handle executes the GetSessionStatusQuery. A session past its deadline
// reports as inactive even before the sweeper finalizes it.
func (h *GetSessionStatusHandler) Handle(ctx context.Context, query GetSessionStatusQuery) (*SessionStatusDTO, error) {
	roster, err := h.rosters.Roster(ctx, query.MeetingID)
	if err != nil {
		return nil, err
	}
	if !roster.Contains(query.UserID) {
		return nil, domain.ErrNotParticipant
	}
	register, err := h.repo.Find(ctx, query.MeetingID)
	if err != nil {
		return nil, err
	}

	now := h.now()
	today := now.In(h.location).Format(domain.DateLayout)
	dto := &SessionStatusDTO{Attendees: []uuid.UUID{}}

	session := register.Session()
	if session == nil || session.Expired(now) {
		dto.CompletedToday = register.CompletedOn(today) || (session != nil && session.Date == today)
		return dto, nil
	}

	endsAt := session.EndsAt
	dto.Active = true
	dto.Date = session.Date
	dto.EndsAt = &endsAt
	dto.RemainingSeconds = int(session.Remaining(now).Seconds())
	dto.Attendees = session.Attendees
	dto.CheckedIn = session.HasAttendee(query.UserID)
	if query.UserID == roster.OwnerID {
		dto.Code = session.Code
	}
	return dto, nil
}
