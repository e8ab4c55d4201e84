package commands

import (
	"context"

	"github.com/felixgeelhaar/huddle/internal/meetings/domain"
	sharedApplication "github.com/felixgeelhaar/huddle/internal/shared/application"
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// UpdateStatusCommand changes a meeting's recruitment status.
type UpdateStatusCommand struct {
	MeetingID uuid.UUID
	ActorID   uuid.UUID
	Status    string
}

// UpdateStatusHandler handles the UpdateStatusCommand.
type UpdateStatusHandler struct {
	repo       domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewUpdateStatusHandler creates a new UpdateStatusHandler.
func NewUpdateStatusHandler(repo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *UpdateStatusHandler {
	return &UpdateStatusHandler{repo: repo, outboxRepo: outboxRepo, uow: uow}
}

// Handle executes the UpdateStatusCommand.
func (h *UpdateStatusHandler) Handle(ctx context.Context, cmd UpdateStatusCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		meeting, err := h.repo.FindByID(txCtx, cmd.MeetingID)
		if err != nil {
			return err
		}
		if err := meeting.UpdateStatus(cmd.ActorID, domain.RecruitmentStatus(cmd.Status)); err != nil {
			return err
		}
		return saveMeeting(txCtx, h.repo, h.outboxRepo, meeting, cmd.ActorID)
	})
}
