package queries

import (
	"context"

	"github.com/felixgeelhaar/huddle/internal/meetings/application/services"
	"github.com/felixgeelhaar/huddle/internal/meetings/domain"
	"github.com/google/uuid"
)

// GetCoordinationQuery asks for the availability heat map of a meeting.
type GetCoordinationQuery struct {
	MeetingID uuid.UUID
	UserID    uuid.UUID
}

// CoordinationDTO adds the caller's own selection to the shared view.
type CoordinationDTO struct {
	services.Coordination
	MySlotKeys []string `json:"my_slot_keys"`
}

// GetCoordinationHandler handles the GetCoordinationQuery.
type GetCoordinationHandler struct {
	repo domain.Repository
	grid domain.SlotGrid
}

// NewGetCoordinationHandler creates a new GetCoordinationHandler.
func NewGetCoordinationHandler(repo domain.Repository, grid domain.SlotGrid) *GetCoordinationHandler {
	return &GetCoordinationHandler{repo: repo, grid: grid}
}

// Handle executes the GetCoordinationQuery.
func (h *GetCoordinationHandler) Handle(ctx context.Context, query GetCoordinationQuery) (*CoordinationDTO, error) {
	meeting, err := h.repo.FindByID(ctx, query.MeetingID)
	if err != nil {
		return nil, err
	}
	if _, ok := meeting.Participant(query.UserID); !ok {
		return nil, domain.ErrNotParticipant
	}

	mine := meeting.Availability(query.UserID)
	keys := make([]string, 0, len(mine))
	for _, slot := range mine {
		keys = append(keys, h.grid.Key(slot))
	}

	return &CoordinationDTO{
		Coordination: services.Summarize(h.grid, meeting),
		MySlotKeys:   keys,
	}, nil
}
