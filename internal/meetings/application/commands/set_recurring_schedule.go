package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/huddle/internal/meetings/application/services"
	"github.com/felixgeelhaar/huddle/internal/meetings/domain"
	sharedApplication "github.com/felixgeelhaar/huddle/internal/shared/application"
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// SetRecurringScheduleCommand installs or replaces a recurring pattern.
type SetRecurringScheduleCommand struct {
	MeetingID uuid.UUID
	ActorID   uuid.UUID
	Frequency string
	DayOfWeek time.Weekday
	StartTime string
	EndTime   string
	From      string
	Until     string
	Location  string
}

// SetRecurringScheduleResult describes the installed pattern.
type SetRecurringScheduleResult struct {
	ScheduleID          uuid.UUID
	Occurrences         []domain.Occurrence
	ReplacedScheduleID  *uuid.UUID
	RetractedEventCount int
}

// SetRecurringScheduleHandler handles the SetRecurringScheduleCommand.
type SetRecurringScheduleHandler struct {
	repo       domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	planner    *services.OccurrencePlanner
	retractor  PersonalEventRetractor
	logger     *slog.Logger
	now        func() time.Time
}

// NewSetRecurringScheduleHandler creates a new SetRecurringScheduleHandler.
func NewSetRecurringScheduleHandler(
	repo domain.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	planner *services.OccurrencePlanner,
	retractor PersonalEventRetractor,
	logger *slog.Logger,
) *SetRecurringScheduleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SetRecurringScheduleHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		uow:        uow,
		planner:    planner,
		retractor:  retractor,
		logger:     logger,
		now:        time.Now,
	}
}

// Handle executes the SetRecurringScheduleCommand.
func (h *SetRecurringScheduleHandler) Handle(ctx context.Context, cmd SetRecurringScheduleCommand) (*SetRecurringScheduleResult, error) {
	pattern := domain.RecurringSchedule{
		ID:        uuid.New(),
		Frequency: domain.Frequency(cmd.Frequency),
		DayOfWeek: cmd.DayOfWeek,
		StartTime: cmd.StartTime,
		EndTime:   cmd.EndTime,
		From:      cmd.From,
		Until:     cmd.Until,
		Location:  cmd.Location,
		CreatedAt: h.now(),
	}
	occurrences, err := h.planner.Expand(pattern)
	if err != nil {
		return nil, err
	}

	meeting, err := h.repo.FindByID(ctx, cmd.MeetingID)
	if err != nil {
		return nil, err
	}
	if err := meeting.EnsureOwner(cmd.ActorID); err != nil {
		h.logger.Warn("set recurring schedule rejected", "meeting_id", cmd.MeetingID, "error", err)
		return nil, err
	}

	retracted := 0
	if meeting.RecurringSchedule() != nil {
		retracted, err = h.retractor.RemovePersonalEvents(ctx, cmd.MeetingID, domain.SourceRecurring)
		if err != nil {
			return nil, fmt.Errorf("retract personal events: %w", err)
		}
	}

	result := &SetRecurringScheduleResult{
		ScheduleID:          pattern.ID,
		Occurrences:         occurrences,
		RetractedEventCount: retracted,
	}
	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		meeting, err := h.repo.FindByID(txCtx, cmd.MeetingID)
		if err != nil {
			return err
		}
		replaced, err := meeting.SetRecurringSchedule(cmd.ActorID, pattern, occurrences)
		if err != nil {
			return err
		}
		if replaced != nil {
			id := replaced.ID
			result.ReplacedScheduleID = &id
		}
		return saveMeeting(txCtx, h.repo, h.outboxRepo, meeting, cmd.ActorID)
	})
	if err != nil {
		return nil, err
	}

	h.logger.Debug("recurring schedule set",
		"meeting_id", cmd.MeetingID,
		"schedule_id", pattern.ID,
		"occurrences", len(occurrences),
	)
	return result, nil
}
