package commands

import (
	"context"

	"github.com/felixgeelhaar/huddle/internal/meetings/domain"
	sharedApplication "github.com/felixgeelhaar/huddle/internal/shared/application"
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// CreateMeetingCommand contains the data needed to create a meeting.
type CreateMeetingCommand struct {
	OwnerID         uuid.UUID
	Title           string
	Description     string
	Location        string
	MaxParticipants int
}

// CreateMeetingResult contains the result of creating a meeting.
type CreateMeetingResult struct {
	MeetingID uuid.UUID
}

// CreateMeetingHandler handles the CreateMeetingCommand.
type CreateMeetingHandler struct {
	repo       domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewCreateMeetingHandler creates a new CreateMeetingHandler.
func NewCreateMeetingHandler(repo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *CreateMeetingHandler {
	return &CreateMeetingHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the CreateMeetingCommand.
func (h *CreateMeetingHandler) Handle(ctx context.Context, cmd CreateMeetingCommand) (*CreateMeetingResult, error) {
	var result *CreateMeetingResult

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		meeting, err := domain.NewMeeting(cmd.OwnerID, cmd.Title, cmd.Description, cmd.Location, cmd.MaxParticipants)
		if err != nil {
			return err
		}
		if err := saveMeeting(txCtx, h.repo, h.outboxRepo, meeting, cmd.OwnerID); err != nil {
			return err
		}

		result = &CreateMeetingResult{MeetingID: meeting.ID()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
