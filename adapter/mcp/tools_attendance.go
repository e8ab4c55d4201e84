package mcp

import (
	"context"

	"github.com/felixgeelhaar/huddle/adapter/cli"
	"github.com/felixgeelhaar/huddle/internal/attendance/application/commands"
	"github.com/felixgeelhaar/huddle/internal/attendance/application/queries"
	"github.com/felixgeelhaar/huddle/internal/attendance/domain"
	"github.com/felixgeelhaar/mcp-go"
)

type attendanceStartInput struct {
	MeetingID string `json:"meeting_id" jsonschema:"required"`
	Date      string `json:"date,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

type attendanceSubmitInput struct {
	MeetingID string `json:"meeting_id" jsonschema:"required"`
	Code      string `json:"code" jsonschema:"required"`
	UserID    string `json:"user_id,omitempty"`
}

type attendanceMemberInput struct {
	MeetingID string `json:"meeting_id" jsonschema:"required"`
	MemberID  string `json:"member_id" jsonschema:"required"`
	UserID    string `json:"user_id,omitempty"`
}

type attendanceRecordInput struct {
	MeetingID string `json:"meeting_id" jsonschema:"required"`
	Date      string `json:"date" jsonschema:"required"`
	UserID    string `json:"user_id,omitempty"`
}

type attendanceTools struct {
	app *cli.App
}

func registerAttendanceTools(srv *mcp.Server, deps ToolDependencies) {
	t := attendanceTools{app: deps.App}

	srv.Tool("attendance.start").
		Description("Open an attendance session and get its code (owner only)").
		Handler(timed(deps, "attendance.start", t.start))
	srv.Tool("attendance.submit").
		Description("Check in with the session code").
		Handler(timed(deps, "attendance.submit", t.submit))
	srv.Tool("attendance.end").
		Description("End the open session and record it (owner only)").
		Handler(timed(deps, "attendance.end", t.end))
	srv.Tool("attendance.status").
		Description("Get the live session state; the code is shown to the owner only").
		Handler(timed(deps, "attendance.status", t.status))
	srv.Tool("attendance.history").
		Description("List recorded sessions, newest first").
		Handler(timed(deps, "attendance.history", t.history))
	srv.Tool("attendance.stats").
		Description("Summarize attendance across all sessions").
		Handler(timed(deps, "attendance.stats", t.stats))
	srv.Tool("attendance.member").
		Description("Get one member's attendance by date").
		Handler(timed(deps, "attendance.member", t.member))
	srv.Tool("attendance.members").
		Description("Get every member's attendance rate").
		Handler(timed(deps, "attendance.members", t.members))
	srv.Tool("attendance.record").
		Description("Get the record for one date").
		Handler(timed(deps, "attendance.record", t.record))
}

func (t attendanceTools) start(ctx context.Context, input attendanceStartInput) (*commands.StartAttendanceResult, error) {
	meetingID, ownerID, err := meetingAndActor(t.app, input.MeetingID, input.UserID)
	if err != nil {
		return nil, err
	}
	return t.app.StartAttendanceHandler.Handle(ctx, commands.StartAttendanceCommand{
		MeetingID: meetingID,
		ActorID:   ownerID,
		Date:      input.Date,
	})
}

func (t attendanceTools) submit(ctx context.Context, input attendanceSubmitInput) (map[string]any, error) {
	meetingID, userID, err := meetingAndActor(t.app, input.MeetingID, input.UserID)
	if err != nil {
		return nil, err
	}
	if err := t.app.SubmitAttendanceCodeHandler.Handle(ctx, commands.SubmitAttendanceCodeCommand{
		MeetingID: meetingID,
		UserID:    userID,
		Code:      input.Code,
	}); err != nil {
		return nil, err
	}
	return map[string]any{"meeting_id": meetingID, "checked_in": true}, nil
}

func (t attendanceTools) end(ctx context.Context, input meetingRefInput) (*commands.EndAttendanceResult, error) {
	meetingID, ownerID, err := meetingAndActor(t.app, input.MeetingID, input.UserID)
	if err != nil {
		return nil, err
	}
	return t.app.EndAttendanceHandler.Handle(ctx, commands.EndAttendanceCommand{
		MeetingID: meetingID,
		ActorID:   ownerID,
	})
}

func (t attendanceTools) status(ctx context.Context, input meetingRefInput) (*queries.SessionStatusDTO, error) {
	meetingID, userID, err := meetingAndActor(t.app, input.MeetingID, input.UserID)
	if err != nil {
		return nil, err
	}
	return t.app.SessionStatusHandler.Handle(ctx, queries.GetSessionStatusQuery{
		MeetingID: meetingID,
		UserID:    userID,
	})
}

func (t attendanceTools) history(ctx context.Context, input meetingRefInput) ([]queries.HistoryRecordDTO, error) {
	meetingID, userID, err := meetingAndActor(t.app, input.MeetingID, input.UserID)
	if err != nil {
		return nil, err
	}
	return t.app.AttendanceHistoryHandler.History(ctx, queries.HistoryQuery{MeetingID: meetingID, UserID: userID})
}

func (t attendanceTools) stats(ctx context.Context, input meetingRefInput) (*domain.Statistics, error) {
	meetingID, userID, err := meetingAndActor(t.app, input.MeetingID, input.UserID)
	if err != nil {
		return nil, err
	}
	return t.app.AttendanceHistoryHandler.Statistics(ctx, queries.HistoryQuery{MeetingID: meetingID, UserID: userID})
}

func (t attendanceTools) member(ctx context.Context, input attendanceMemberInput) (*queries.UserHistoryDTO, error) {
	meetingID, userID, err := meetingAndActor(t.app, input.MeetingID, input.UserID)
	if err != nil {
		return nil, err
	}
	memberID, err := parseUUID(input.MemberID)
	if err != nil {
		return nil, err
	}
	return t.app.AttendanceHistoryHandler.UserHistory(ctx, queries.UserHistoryQuery{
		MeetingID: meetingID,
		UserID:    userID,
		MemberID:  memberID,
	})
}

func (t attendanceTools) members(ctx context.Context, input meetingRefInput) ([]domain.MemberRate, error) {
	meetingID, userID, err := meetingAndActor(t.app, input.MeetingID, input.UserID)
	if err != nil {
		return nil, err
	}
	return t.app.AttendanceHistoryHandler.MemberRates(ctx, queries.HistoryQuery{MeetingID: meetingID, UserID: userID})
}

func (t attendanceTools) record(ctx context.Context, input attendanceRecordInput) (*queries.HistoryRecordDTO, error) {
	meetingID, userID, err := meetingAndActor(t.app, input.MeetingID, input.UserID)
	if err != nil {
		return nil, err
	}
	return t.app.AttendanceHistoryHandler.RecordByDate(ctx, queries.RecordByDateQuery{
		MeetingID: meetingID,
		UserID:    userID,
		Date:      input.Date,
	})
}
