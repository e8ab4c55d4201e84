package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/huddle/internal/attendance/application/services"
	"github.com/felixgeelhaar/huddle/internal/attendance/domain"
	"github.com/felixgeelhaar/huddle/pkg/observability"
	"github.com/google/uuid"
)

// SubmitAttendanceCodeCommand checks a participant in.
type SubmitAttendanceCodeCommand struct {
	MeetingID uuid.UUID
	UserID    uuid.UUID
	Code      string
}

// SubmitAttendanceCodeHandler handles the SubmitAttendanceCodeCommand.
type SubmitAttendanceCodeHandler struct {
	executor *Executor
}

// NewSubmitAttendanceCodeHandler creates a new SubmitAttendanceCodeHandler.
func NewSubmitAttendanceCodeHandler(executor *Executor) *SubmitAttendanceCodeHandler {
	return &SubmitAttendanceCodeHandler{executor: executor}
}

// Handle executes the SubmitAttendanceCodeCommand. Submitting twice is
// not an error.
func (h *SubmitAttendanceCodeHandler) Handle(ctx context.Context, cmd SubmitAttendanceCodeCommand) error {
	err := h.executor.run(ctx, cmd.MeetingID, cmd.UserID, func(register *domain.Register, roster services.Roster, now time.Time) error {
		return register.Submit(cmd.UserID, cmd.Code, now, roster.Members)
	})
	if err != nil {
		h.executor.metrics.Counter(MetricSubmissions, 1, observability.T("result", "rejected"))
		h.executor.logger.Warn("attendance code rejected", "meeting_id", cmd.MeetingID, "user_id", cmd.UserID, "error", err)
		return err
	}
	return nil
}
