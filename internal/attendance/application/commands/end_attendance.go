package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/huddle/internal/attendance/application/services"
	"github.com/felixgeelhaar/huddle/internal/attendance/domain"
	"github.com/google/uuid"
)

// EndAttendanceCommand closes the open session on the owner's request.
type EndAttendanceCommand struct {
	MeetingID uuid.UUID
	ActorID   uuid.UUID
}

// EndAttendanceResult describes the finalized record. Ended is false when
// nothing was open.
type EndAttendanceResult struct {
	Ended             bool
	Date              string
	AttendedCount     int
	TotalParticipants int
	RatePercent       int
}

// EndAttendanceHandler handles the EndAttendanceCommand.
type EndAttendanceHandler struct {
	executor *Executor
}

// NewEndAttendanceHandler creates a new EndAttendanceHandler.
func NewEndAttendanceHandler(executor *Executor) *EndAttendanceHandler {
	return &EndAttendanceHandler{executor: executor}
}

// Handle executes the EndAttendanceCommand.
func (h *EndAttendanceHandler) Handle(ctx context.Context, cmd EndAttendanceCommand) (*EndAttendanceResult, error) {
	result := &EndAttendanceResult{}
	err := h.executor.run(ctx, cmd.MeetingID, cmd.ActorID, func(register *domain.Register, roster services.Roster, now time.Time) error {
		record, err := register.End(cmd.ActorID, roster.OwnerID, now, roster.Members)
		if err != nil || record == nil {
			return err
		}
		*result = recordResult(*record)
		return nil
	})
	if err != nil {
		h.executor.logger.Warn("end attendance rejected", "meeting_id", cmd.MeetingID, "error", err)
		return nil, err
	}
	return result, nil
}

func recordResult(record domain.HistoryRecord) EndAttendanceResult {
	return EndAttendanceResult{
		Ended:             true,
		Date:              record.Date,
		AttendedCount:     record.AttendedCount(),
		TotalParticipants: record.TotalParticipants(),
		RatePercent:       record.RatePercent(),
	}
}
