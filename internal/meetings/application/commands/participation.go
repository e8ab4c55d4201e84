package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/huddle/internal/meetings/domain"
	sharedApplication "github.com/felixgeelhaar/huddle/internal/shared/application"
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// ParticipationAction is one step of the join-request lifecycle.
type ParticipationAction string

const (
	ActionRequest ParticipationAction = "request"
	ActionCancel  ParticipationAction = "cancel"
	ActionApprove ParticipationAction = "approve"
	ActionReject  ParticipationAction = "reject"
	ActionLeave   ParticipationAction = "leave"
)

// ChangeParticipationCommand moves UserID through the join lifecycle.
// ActorID is the user issuing the command: the requester for request,
// cancel and leave, the owner for approve and reject.
type ChangeParticipationCommand struct {
	MeetingID uuid.UUID
	ActorID   uuid.UUID
	UserID    uuid.UUID
	Action    ParticipationAction
}

// ChangeParticipationHandler handles the ChangeParticipationCommand.
type ChangeParticipationHandler struct {
	repo       domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	now        func() time.Time
}

// NewChangeParticipationHandler creates a new ChangeParticipationHandler.
func NewChangeParticipationHandler(repo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *ChangeParticipationHandler {
	return &ChangeParticipationHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		uow:        uow,
		now:        time.Now,
	}
}

// Handle executes the ChangeParticipationCommand.
func (h *ChangeParticipationHandler) Handle(ctx context.Context, cmd ChangeParticipationCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		meeting, err := h.repo.FindByID(txCtx, cmd.MeetingID)
		if err != nil {
			return err
		}

		switch cmd.Action {
		case ActionRequest:
			err = meeting.RequestToJoin(cmd.ActorID, h.now())
		case ActionCancel:
			err = meeting.CancelJoinRequest(cmd.ActorID)
		case ActionApprove:
			err = meeting.ApproveJoinRequest(cmd.ActorID, cmd.UserID, h.now())
		case ActionReject:
			err = meeting.RejectJoinRequest(cmd.ActorID, cmd.UserID)
		case ActionLeave:
			err = meeting.Leave(cmd.ActorID)
		default:
			err = fmt.Errorf("unknown participation action %q", cmd.Action)
		}
		if err != nil {
			return err
		}

		return saveMeeting(txCtx, h.repo, h.outboxRepo, meeting, cmd.ActorID)
	})
}
