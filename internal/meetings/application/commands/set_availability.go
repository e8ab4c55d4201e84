package commands

import (
	"context"

	"github.com/felixgeelhaar/huddle/internal/meetings/domain"
	sharedApplication "github.com/felixgeelhaar/huddle/internal/shared/application"
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// SetAvailabilityCommand replaces a participant's slot selection. SlotKeys
// use the grid's "day-HH-MM" form.
type SetAvailabilityCommand struct {
	MeetingID uuid.UUID
	UserID    uuid.UUID
	SlotKeys  []string
}

// SetAvailabilityResult reports the stored selection.
type SetAvailabilityResult struct {
	SlotCount int
}

// SetAvailabilityHandler handles the SetAvailabilityCommand. Only the
// caller's own rows are rewritten and the meeting version is left alone,
// so participants saving at the same time never conflict.
type SetAvailabilityHandler struct {
	repo       domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	grid       domain.SlotGrid
}

// NewSetAvailabilityHandler creates a new SetAvailabilityHandler.
func NewSetAvailabilityHandler(repo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, grid domain.SlotGrid) *SetAvailabilityHandler {
	return &SetAvailabilityHandler{repo: repo, outboxRepo: outboxRepo, uow: uow, grid: grid}
}

// Handle executes the SetAvailabilityCommand.
func (h *SetAvailabilityHandler) Handle(ctx context.Context, cmd SetAvailabilityCommand) (*SetAvailabilityResult, error) {
	slots, err := h.grid.ParseSlotKeys(cmd.SlotKeys)
	if err != nil {
		return nil, err
	}

	var result *SetAvailabilityResult
	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		meeting, err := h.repo.FindByID(txCtx, cmd.MeetingID)
		if err != nil {
			return err
		}
		if err := meeting.SetAvailability(h.grid, cmd.UserID, slots); err != nil {
			return err
		}

		stored := meeting.Availability(cmd.UserID)
		if err := h.repo.ReplaceAvailability(txCtx, meeting.ID(), cmd.UserID, stored); err != nil {
			return err
		}
		if err := recordEvents(txCtx, h.outboxRepo, meeting, cmd.UserID); err != nil {
			return err
		}

		result = &SetAvailabilityResult{SlotCount: len(stored)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
