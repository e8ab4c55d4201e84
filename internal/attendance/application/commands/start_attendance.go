package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/huddle/internal/attendance/application/services"
	"github.com/felixgeelhaar/huddle/internal/attendance/domain"
	"github.com/google/uuid"
)

// StartAttendanceCommand opens an attendance session. An empty Date means
// today in the handler's location.
type StartAttendanceCommand struct {
	MeetingID uuid.UUID
	ActorID   uuid.UUID
	Date      string
}

// StartAttendanceResult carries what the owner shows to participants.
type StartAttendanceResult struct {
	Date   string
	Code   string
	EndsAt time.Time
}

// StartAttendanceHandler handles the StartAttendanceCommand.
type StartAttendanceHandler struct {
	executor *Executor
	codes    domain.CodeGenerator
	ttl      time.Duration
	location *time.Location
}

// NewStartAttendanceHandler creates a new StartAttendanceHandler.
func NewStartAttendanceHandler(executor *Executor, codes domain.CodeGenerator, ttl time.Duration, location *time.Location) *StartAttendanceHandler {
	if codes == nil {
		codes = domain.RandomCodes{}
	}
	if ttl <= 0 {
		ttl = domain.DefaultSessionTTL
	}
	if location == nil {
		location = time.Local
	}
	return &StartAttendanceHandler{executor: executor, codes: codes, ttl: ttl, location: location}
}

// Handle executes the StartAttendanceCommand.
func (h *StartAttendanceHandler) Handle(ctx context.Context, cmd StartAttendanceCommand) (*StartAttendanceResult, error) {
	var result *StartAttendanceResult
	err := h.executor.run(ctx, cmd.MeetingID, cmd.ActorID, func(register *domain.Register, roster services.Roster, now time.Time) error {
		date := cmd.Date
		if date == "" {
			date = now.In(h.location).Format(domain.DateLayout)
		}
		session, err := register.Start(cmd.ActorID, roster.OwnerID, date, now, h.ttl, h.codes, roster.Members)
		if err != nil {
			return err
		}
		result = &StartAttendanceResult{Date: session.Date, Code: session.Code, EndsAt: session.EndsAt}
		return nil
	})
	if err != nil {
		h.executor.logger.Warn("start attendance rejected", "meeting_id", cmd.MeetingID, "error", err)
		return nil, err
	}

	h.executor.logger.Debug("attendance session open", "meeting_id", cmd.MeetingID, "date", result.Date, "ends_at", result.EndsAt)
	return result, nil
}
