package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/huddle/internal/attendance/application/services"
	"github.com/felixgeelhaar/huddle/internal/attendance/domain"
	"github.com/google/uuid"
)

// ExpireAttendanceCommand finalizes a session whose deadline passed.
type ExpireAttendanceCommand struct {
	MeetingID uuid.UUID
}

// ExpireAttendanceHandler handles the ExpireAttendanceCommand. Several
// observers may race to expire the same session; all but the first find
// nothing to do.
type ExpireAttendanceHandler struct {
	executor *Executor
}

// NewExpireAttendanceHandler creates a new ExpireAttendanceHandler.
func NewExpireAttendanceHandler(executor *Executor) *ExpireAttendanceHandler {
	return &ExpireAttendanceHandler{executor: executor}
}

// Handle executes the ExpireAttendanceCommand.
func (h *ExpireAttendanceHandler) Handle(ctx context.Context, cmd ExpireAttendanceCommand) (*EndAttendanceResult, error) {
	result := &EndAttendanceResult{}
	err := h.executor.run(ctx, cmd.MeetingID, uuid.Nil, func(register *domain.Register, roster services.Roster, now time.Time) error {
		record, err := register.ExpireIfDue(now, roster.Members)
		if err != nil || record == nil {
			return err
		}
		*result = recordResult(*record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Ended {
		h.executor.logger.Info("attendance session expired",
			"meeting_id", cmd.MeetingID,
			"date", result.Date,
			"rate_percent", result.RatePercent,
		)
	}
	return result, nil
}
