package queries

import (
	"context"

	"github.com/felixgeelhaar/huddle/internal/meetings/application/services"
	"github.com/felixgeelhaar/huddle/internal/meetings/domain"
	"github.com/google/uuid"
)

// GetSuggestionsQuery asks for the ranked meeting times of a meeting.
type GetSuggestionsQuery struct {
	MeetingID uuid.UUID
	UserID    uuid.UUID
	Limit     int
}

// SuggestionsDTO holds ranked suggestions. Once a schedule has been
// committed HasSchedule is set and no suggestions are returned.
type SuggestionsDTO struct {
	HasSchedule       bool                  `json:"has_schedule"`
	TotalParticipants int                   `json:"total_participants"`
	Suggestions       []services.Suggestion `json:"suggestions"`
}

// GetSuggestionsHandler handles the GetSuggestionsQuery.
type GetSuggestionsHandler struct {
	repo       domain.Repository
	calculator *services.OptimalTimeCalculator
}

// NewGetSuggestionsHandler creates a new GetSuggestionsHandler.
func NewGetSuggestionsHandler(repo domain.Repository, calculator *services.OptimalTimeCalculator) *GetSuggestionsHandler {
	return &GetSuggestionsHandler{repo: repo, calculator: calculator}
}

// Handle executes the GetSuggestionsQuery.
func (h *GetSuggestionsHandler) Handle(ctx context.Context, query GetSuggestionsQuery) (*SuggestionsDTO, error) {
	meeting, err := h.repo.FindByID(ctx, query.MeetingID)
	if err != nil {
		return nil, err
	}
	if _, ok := meeting.Participant(query.UserID); !ok {
		return nil, domain.ErrNotParticipant
	}

	dto := &SuggestionsDTO{
		TotalParticipants: meeting.TotalParticipants(),
		Suggestions:       []services.Suggestion{},
	}
	if meeting.SuggestedSchedule() != nil {
		dto.HasSchedule = true
		return dto, nil
	}

	suggestions := h.calculator.ComputeSuggestions(meeting)
	if query.Limit > 0 && len(suggestions) > query.Limit {
		suggestions = suggestions[:query.Limit]
	}
	dto.Suggestions = suggestions
	return dto, nil
}
