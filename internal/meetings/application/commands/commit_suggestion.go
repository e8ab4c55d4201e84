package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/huddle/internal/meetings/application/services"
	"github.com/felixgeelhaar/huddle/internal/meetings/domain"
	sharedApplication "github.com/felixgeelhaar/huddle/internal/shared/application"
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// CommitSuggestionCommand turns a suggestion into the meeting's schedule.
// StartSlotKey and RunLength identify the suggestion; an empty Location
// falls back to the meeting's own.
type CommitSuggestionCommand struct {
	MeetingID    uuid.UUID
	ActorID      uuid.UUID
	StartSlotKey string
	RunLength    int
	Location     string
}

// CommitSuggestionResult describes the committed schedule.
type CommitSuggestionResult struct {
	ScheduleID uuid.UUID
	Occurrence domain.Occurrence
}

// CommitSuggestionHandler handles the CommitSuggestionCommand.
type CommitSuggestionHandler struct {
	repo       domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	grid       domain.SlotGrid
	planner    *services.OccurrencePlanner
	logger     *slog.Logger
	now        func() time.Time
}

// NewCommitSuggestionHandler creates a new CommitSuggestionHandler.
func NewCommitSuggestionHandler(
	repo domain.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	grid domain.SlotGrid,
	planner *services.OccurrencePlanner,
	logger *slog.Logger,
) *CommitSuggestionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommitSuggestionHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		uow:        uow,
		grid:       grid,
		planner:    planner,
		logger:     logger,
		now:        time.Now,
	}
}

// Handle executes the CommitSuggestionCommand.
func (h *CommitSuggestionHandler) Handle(ctx context.Context, cmd CommitSuggestionCommand) (*CommitSuggestionResult, error) {
	start, err := h.grid.ParseSlotKey(cmd.StartSlotKey)
	if err != nil {
		return nil, err
	}
	occurrence, err := h.planner.NextOccurrence(start, cmd.RunLength, h.now())
	if err != nil {
		return nil, err
	}

	var result *CommitSuggestionResult
	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		meeting, err := h.repo.FindByID(txCtx, cmd.MeetingID)
		if err != nil {
			return err
		}

		location := cmd.Location
		if location == "" {
			location = meeting.Location()
		}
		schedule := domain.SuggestedSchedule{
			ID:          uuid.New(),
			Date:        occurrence.Date,
			StartTime:   occurrence.StartTime,
			EndTime:     occurrence.EndTime,
			Location:    location,
			CommittedAt: h.now(),
		}
		if err := meeting.CommitSuggestedSchedule(cmd.ActorID, schedule); err != nil {
			return err
		}
		if err := saveMeeting(txCtx, h.repo, h.outboxRepo, meeting, cmd.ActorID); err != nil {
			return err
		}

		result = &CommitSuggestionResult{ScheduleID: schedule.ID, Occurrence: schedule.Occurrence()}
		return nil
	})
	if err != nil {
		h.logger.Warn("commit suggestion rejected", "meeting_id", cmd.MeetingID, "error", err)
		return nil, err
	}

	h.logger.Debug("suggested schedule committed",
		"meeting_id", cmd.MeetingID,
		"schedule_id", result.ScheduleID,
		"date", result.Occurrence.Date,
	)
	return result, nil
}
