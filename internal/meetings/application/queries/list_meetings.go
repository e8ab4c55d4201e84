package queries

import (
	"context"

	"github.com/felixgeelhaar/huddle/internal/meetings/domain"
	"github.com/google/uuid"
)

// ListMeetingsQuery lists the meetings a user belongs to, or meetings open
// for joining when OpenOnly is set.
type ListMeetingsQuery struct {
	UserID   uuid.UUID
	OpenOnly bool
	Limit    int
}

// ListMeetingsHandler handles the ListMeetingsQuery.
type ListMeetingsHandler struct {
	repo domain.Repository
}

// NewListMeetingsHandler creates a new ListMeetingsHandler.
func NewListMeetingsHandler(repo domain.Repository) *ListMeetingsHandler {
	return &ListMeetingsHandler{repo: repo}
}

// Handle executes the ListMeetingsQuery.
func (h *ListMeetingsHandler) Handle(ctx context.Context, query ListMeetingsQuery) ([]MeetingDTO, error) {
	var (
		meetings []*domain.Meeting
		err      error
	)
	if query.OpenOnly {
		meetings, err = h.repo.FindOpen(ctx, query.Limit)
	} else {
		meetings, err = h.repo.FindByParticipant(ctx, query.UserID)
	}
	if err != nil {
		return nil, err
	}

	dtos := make([]MeetingDTO, 0, len(meetings))
	for _, m := range meetings {
		dtos = append(dtos, toMeetingDTO(m))
	}
	return dtos, nil
}
