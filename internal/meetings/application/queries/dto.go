package queries

import (
	"time"

	"github.com/felixgeelhaar/huddle/internal/meetings/domain"
	"github.com/google/uuid"
)

// ParticipantDTO is a roster entry or pending request.
type ParticipantDTO struct {
	UserID   uuid.UUID `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// SuggestedScheduleDTO is the committed date of a meeting.
type SuggestedScheduleDTO struct {
	ID        uuid.UUID `json:"id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Location  string    `json:"location,omitempty"`
}

// RecurringScheduleDTO is a meeting's repeating pattern.
type RecurringScheduleDTO struct {
	ID          uuid.UUID `json:"id"`
	Frequency   string    `json:"frequency"`
	DayOfWeek   int       `json:"day_of_week"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	From        string    `json:"from"`
	Until       string    `json:"until"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description"`
}

// MeetingDTO is the read model of a meeting.
type MeetingDTO struct {
	ID                uuid.UUID             `json:"id"`
	OwnerID           uuid.UUID             `json:"owner_id"`
	Title             string                `json:"title"`
	Description       string                `json:"description,omitempty"`
	Location          string                `json:"location,omitempty"`
	MaxParticipants   int                   `json:"max_participants"`
	Status            string                `json:"status"`
	TotalParticipants int                   `json:"total_participants"`
	Participants      []ParticipantDTO      `json:"participants"`
	SuggestedSchedule *SuggestedScheduleDTO `json:"suggested_schedule,omitempty"`
	RecurringSchedule *RecurringScheduleDTO `json:"recurring_schedule,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
}

func toMeetingDTO(m *domain.Meeting) MeetingDTO {
	participants := make([]ParticipantDTO, 0, len(m.Participants()))
	for _, p := range m.Participants() {
		participants = append(participants, ParticipantDTO{UserID: p.UserID, Role: string(p.Role), JoinedAt: p.JoinedAt})
	}

	dto := MeetingDTO{
		ID:                m.ID(),
		OwnerID:           m.OwnerID(),
		Title:             m.Title(),
		Description:       m.Description(),
		Location:          m.Location(),
		MaxParticipants:   m.MaxParticipants(),
		Status:            string(m.Status()),
		TotalParticipants: m.TotalParticipants(),
		Participants:      participants,
		CreatedAt:         m.CreatedAt(),
	}
	if s := m.SuggestedSchedule(); s != nil {
		dto.SuggestedSchedule = &SuggestedScheduleDTO{
			ID: s.ID, Date: s.Date, StartTime: s.StartTime, EndTime: s.EndTime, Location: s.Location,
		}
	}
	if r := m.RecurringSchedule(); r != nil {
		dto.RecurringSchedule = &RecurringScheduleDTO{
			ID:          r.ID,
			Frequency:   string(r.Frequency),
			DayOfWeek:   int(r.DayOfWeek),
			StartTime:   r.StartTime,
			EndTime:     r.EndTime,
			From:        r.From,
			Until:       r.Until,
			Location:    r.Location,
			Description: r.Describe(),
		}
	}
	return dto
}
