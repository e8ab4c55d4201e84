package queries

import (
	"context"

	"github.com/felixgeelhaar/huddle/internal/meetings/domain"
	"github.com/google/uuid"
)

// GetMeetingQuery contains the parameters for getting a single meeting.
type GetMeetingQuery struct {
	MeetingID uuid.UUID
}

// GetMeetingHandler handles the GetMeetingQuery.
type GetMeetingHandler struct {
	repo domain.Repository
}

// NewGetMeetingHandler creates a new GetMeetingHandler.
func NewGetMeetingHandler(repo domain.Repository) *GetMeetingHandler {
	return &GetMeetingHandler{repo: repo}
}

// Handle executes the GetMeetingQuery.
func (h *GetMeetingHandler) Handle(ctx context.Context, query GetMeetingQuery) (*MeetingDTO, error) {
	meeting, err := h.repo.FindByID(ctx, query.MeetingID)
	if err != nil {
		return nil, err
	}
	dto := toMeetingDTO(meeting)
	return &dto, nil
}
