package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/huddle/internal/meetings/domain"
	sharedApplication "github.com/felixgeelhaar/huddle/internal/shared/application"
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// RemoveRecurringScheduleCommand clears a meeting's recurring pattern.
type RemoveRecurringScheduleCommand struct {
	MeetingID uuid.UUID
	ActorID   uuid.UUID
}

// RemoveRecurringScheduleHandler handles the RemoveRecurringScheduleCommand.
type RemoveRecurringScheduleHandler struct {
	repo       domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	retractor  PersonalEventRetractor
	logger     *slog.Logger
}

// NewRemoveRecurringScheduleHandler creates a new RemoveRecurringScheduleHandler.
func NewRemoveRecurringScheduleHandler(
	repo domain.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	retractor PersonalEventRetractor,
	logger *slog.Logger,
) *RemoveRecurringScheduleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoveRecurringScheduleHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		uow:        uow,
		retractor:  retractor,
		logger:     logger,
	}
}

// Handle executes the RemoveRecurringScheduleCommand.
func (h *RemoveRecurringScheduleHandler) Handle(ctx context.Context, cmd RemoveRecurringScheduleCommand) (*RemoveScheduleResult, error) {
	meeting, err := h.repo.FindByID(ctx, cmd.MeetingID)
	if err != nil {
		return nil, err
	}
	if err := meeting.EnsureOwner(cmd.ActorID); err != nil {
		h.logger.Warn("remove recurring schedule rejected", "meeting_id", cmd.MeetingID, "error", err)
		return nil, err
	}
	if meeting.RecurringSchedule() == nil {
		return nil, domain.ErrScheduleNotFound
	}

	retracted, err := h.retractor.RemovePersonalEvents(ctx, cmd.MeetingID, domain.SourceRecurring)
	if err != nil {
		return nil, fmt.Errorf("retract personal events: %w", err)
	}

	var result *RemoveScheduleResult
	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		meeting, err := h.repo.FindByID(txCtx, cmd.MeetingID)
		if err != nil {
			return err
		}
		removed, err := meeting.RemoveRecurringSchedule(cmd.ActorID)
		if err != nil {
			return err
		}
		if err := saveMeeting(txCtx, h.repo, h.outboxRepo, meeting, cmd.ActorID); err != nil {
			return err
		}
		result = &RemoveScheduleResult{ScheduleID: removed.ID, RetractedEvents: retracted}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.Debug("recurring schedule removed", "meeting_id", cmd.MeetingID, "retracted", retracted)
	return result, nil
}
