package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/huddle/internal/attendance/application/services"
	"github.com/felixgeelhaar/huddle/internal/attendance/domain"
	"github.com/google/uuid"
)

// HistoryRecordDTO is one finalized session.
type HistoryRecordDTO struct {
	Date              string                    `json:"date"`
	StartedAt         time.Time                 `json:"started_at"`
	FinalizedAt       time.Time                 `json:"finalized_at"`
	AttendeeIDs       []uuid.UUID               `json:"attendee_ids"`
	TotalParticipants int                       `json:"total_participants"`
	RatePercent       int                       `json:"attendance_rate_percent"`
	Members           []domain.MemberAttendance `json:"members"`
}

func toRecordDTO(rec domain.HistoryRecord) HistoryRecordDTO {
	return HistoryRecordDTO{
		Date:              rec.Date,
		StartedAt:         rec.StartedAt,
		FinalizedAt:       rec.FinalizedAt,
		AttendeeIDs:       rec.AttendeeIDs(),
		TotalParticipants: rec.TotalParticipants(),
		RatePercent:       rec.RatePercent(),
		Members:           rec.Members,
	}
}

// HistoryQuery names a meeting and the user asking about it.
type HistoryQuery struct {
	MeetingID uuid.UUID
	UserID    uuid.UUID
}

// UserHistoryQuery asks about one member; UserID is the caller.
type UserHistoryQuery struct {
	MeetingID uuid.UUID
	UserID    uuid.UUID
	MemberID  uuid.UUID
}

// UserHistoryDTO is a member's per-date attendance and overall rate.
type UserHistoryDTO struct {
	MemberID    uuid.UUID               `json:"member_id"`
	RatePercent int                     `json:"rate_percent"`
	Dates       []domain.UserAttendance `json:"dates"`
}

// RecordByDateQuery asks for one date's record.
type RecordByDateQuery struct {
	MeetingID uuid.UUID
	UserID    uuid.UUID
	Date      string
}

// HistoryHandler answers the read-only history questions about a register.
type HistoryHandler struct {
	repo    domain.Repository
	rosters services.RosterProvider
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(repo domain.Repository, rosters services.RosterProvider) *HistoryHandler {
	return &HistoryHandler{repo: repo, rosters: rosters}
}

func (h *HistoryHandler) load(ctx context.Context, meetingID, userID uuid.UUID) (*domain.Register, services.Roster, error) {
	roster, err := h.rosters.Roster(ctx, meetingID)
	if err != nil {
		return nil, services.Roster{}, err
	}
	if !roster.Contains(userID) {
		return nil, services.Roster{}, domain.ErrNotParticipant
	}
	register, err := h.repo.Find(ctx, meetingID)
	if err != nil {
		return nil, services.Roster{}, err
	}
	return register, roster, nil
}

// History lists every record, newest first.
func (h *HistoryHandler) History(ctx context.Context, query HistoryQuery) ([]HistoryRecordDTO, error) {
	register, _, err := h.load(ctx, query.MeetingID, query.UserID)
	if err != nil {
		return nil, err
	}
	records := register.History()
	dtos := make([]HistoryRecordDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, toRecordDTO(rec))
	}
	return dtos, nil
}

// Statistics summarizes the meeting's records.
func (h *HistoryHandler) Statistics(ctx context.Context, query HistoryQuery) (*domain.Statistics, error) {
	register, _, err := h.load(ctx, query.MeetingID, query.UserID)
	if err != nil {
		return nil, err
	}
	stats := domain.Summarize(register.History())
	return &stats, nil
}

// UserHistory reports one member's attendance. A zero MemberID means the
// caller.
func (h *HistoryHandler) UserHistory(ctx context.Context, query UserHistoryQuery) (*UserHistoryDTO, error) {
	register, _, err := h.load(ctx, query.MeetingID, query.UserID)
	if err != nil {
		return nil, err
	}
	member := query.MemberID
	if member == uuid.Nil {
		member = query.UserID
	}
	records := register.History()
	return &UserHistoryDTO{
		MemberID:    member,
		RatePercent: domain.UserRate(records, member),
		Dates:       domain.UserHistory(records, member),
	}, nil
}

// MemberRates reports every current roster member's attendance.
func (h *HistoryHandler) MemberRates(ctx context.Context, query HistoryQuery) ([]domain.MemberRate, error) {
	register, roster, err := h.load(ctx, query.MeetingID, query.UserID)
	if err != nil {
		return nil, err
	}
	return domain.MemberRates(register.History(), roster.Members), nil
}

// RecordByDate returns the record for one date, or nil when that date has
// none.
func (h *HistoryHandler) RecordByDate(ctx context.Context, query RecordByDateQuery) (*HistoryRecordDTO, error) {
	register, _, err := h.load(ctx, query.MeetingID, query.UserID)
	if err != nil {
		return nil, err
	}
	rec, ok := register.Record(query.Date)
	if !ok {
		return nil, nil
	}
	dto := toRecordDTO(rec)
	return &dto, nil
}
