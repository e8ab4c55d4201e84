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

// RemoveSuggestedScheduleCommand clears a meeting's committed schedule.
type RemoveSuggestedScheduleCommand struct {
	MeetingID uuid.UUID
	ActorID   uuid.UUID
}

// RemoveScheduleResult reports what a removal retracted.
type RemoveScheduleResult struct {
	ScheduleID      uuid.UUID
	RetractedEvents int
}

// RemoveSuggestedScheduleHandler handles the RemoveSuggestedScheduleCommand.
// Personal events are retracted before the record is deleted, so a failed
// retraction leaves the schedule in place and the call can be repeated.
type RemoveSuggestedScheduleHandler struct {
	repo       domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	retractor  PersonalEventRetractor
	logger     *slog.Logger
}

// NewRemoveSuggestedScheduleHandler creates a new RemoveSuggestedScheduleHandler.
func NewRemoveSuggestedScheduleHandler(
	repo domain.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	retractor PersonalEventRetractor,
	logger *slog.Logger,
) *RemoveSuggestedScheduleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoveSuggestedScheduleHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		uow:        uow,
		retractor:  retractor,
		logger:     logger,
	}
}

// Handle executes the RemoveSuggestedScheduleCommand.
func (h *RemoveSuggestedScheduleHandler) Handle(ctx context.Context, cmd RemoveSuggestedScheduleCommand) (*RemoveScheduleResult, error) {
	meeting, err := h.repo.FindByID(ctx, cmd.MeetingID)
	if err != nil {
		return nil, err
	}
	if err := meeting.EnsureOwner(cmd.ActorID); err != nil {
		h.logger.Warn("remove suggested schedule rejected", "meeting_id", cmd.MeetingID, "error", err)
		return nil, err
	}
	if meeting.SuggestedSchedule() == nil {
		return nil, domain.ErrScheduleNotFound
	}

	retracted, err := h.retractor.RemovePersonalEvents(ctx, cmd.MeetingID, domain.SourceSuggested)
	if err != nil {
		return nil, fmt.Errorf("retract personal events: %w", err)
	}

	var result *RemoveScheduleResult
	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		meeting, err := h.repo.FindByID(txCtx, cmd.MeetingID)
		if err != nil {
			return err
		}
		removed, err := meeting.RemoveSuggestedSchedule(cmd.ActorID)
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

	h.logger.Debug("suggested schedule removed",
		"meeting_id", cmd.MeetingID,
		"schedule_id", result.ScheduleID,
		"retracted", retracted,
	)
	return result, nil
}
