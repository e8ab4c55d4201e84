package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/huddle/adapter/cli"
	"github.com/felixgeelhaar/huddle/internal/meetings/application/commands"
	"github.com/felixgeelhaar/huddle/internal/meetings/application/queries"
	"github.com/felixgeelhaar/mcp-go"
)

type meetingCreateInput struct {
	Title           string `json:"title" jsonschema:"required"`
	Description     string `json:"description,omitempty"`
	Location        string `json:"location,omitempty"`
	MaxParticipants int    `json:"max_participants,omitempty"`
	UserID          string `json:"user_id,omitempty"`
}

type meetingListInput struct {
	OpenOnly bool   `json:"open_only,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	UserID   string `json:"user_id,omitempty"`
}

type meetingRefInput struct {
	MeetingID string `json:"meeting_id" jsonschema:"required"`
	UserID    string `json:"user_id,omitempty"`
}

type meetingDecisionInput struct {
	MeetingID   string `json:"meeting_id" jsonschema:"required"`
	RequesterID string `json:"requester_id" jsonschema:"required"`
	UserID      string `json:"user_id,omitempty"`
}

type meetingStatusInput struct {
	MeetingID string `json:"meeting_id" jsonschema:"required"`
	Status    string `json:"status" jsonschema:"required"`
	UserID    string `json:"user_id,omitempty"`
}

type availabilitySetInput struct {
	MeetingID string   `json:"meeting_id" jsonschema:"required"`
	SlotKeys  []string `json:"slot_keys"`
	UserID    string   `json:"user_id,omitempty"`
}

type participationResult struct {
	MeetingID string `json:"meeting_id"`
	UserID    string `json:"user_id"`
	Action    string `json:"action"`
}

type meetingTools struct {
	app *cli.App
}

func registerMeetingTools(srv *mcp.Server, deps ToolDependencies) {
	t := meetingTools{app: deps.App}

	srv.Tool("meeting.create").
		Description("Create a meeting owned by the caller").
		Handler(timed(deps, "meeting.create", t.create))
	srv.Tool("meeting.list").
		Description("List the caller's meetings, or meetings open for joining").
		Handler(timed(deps, "meeting.list", t.list))
	srv.Tool("meeting.get").
		Description("Get a meeting with its roster and schedules").
		Handler(timed(deps, "meeting.get", t.get))
	srv.Tool("meeting.join").
		Description("Ask to join a meeting").
		Handler(timed(deps, "meeting.join", t.participation(commands.ActionRequest)))
	srv.Tool("meeting.cancel_request").
		Description("Withdraw a pending join request").
		Handler(timed(deps, "meeting.cancel_request", t.participation(commands.ActionCancel)))
	srv.Tool("meeting.leave").
		Description("Leave a meeting; the owner cannot leave").
		Handler(timed(deps, "meeting.leave", t.participation(commands.ActionLeave)))
	srv.Tool("meeting.approve").
		Description("Approve a join request (owner only)").
		Handler(timed(deps, "meeting.approve", t.decision(commands.ActionApprove)))
	srv.Tool("meeting.reject").
		Description("Reject a join request (owner only)").
		Handler(timed(deps, "meeting.reject", t.decision(commands.ActionReject)))
	srv.Tool("meeting.set_status").
		Description("Open or close recruitment (owner only)").
		Handler(timed(deps, "meeting.set_status", t.setStatus))
	srv.Tool("availability.set").
		Description("Replace the caller's availability with the given slot keys (DAY-HH-MM, Monday is 0)").
		Handler(timed(deps, "availability.set", t.setAvailability))
	srv.Tool("availability.coordination").
		Description("Get the availability heat map and response rate").
		Handler(timed(deps, "availability.coordination", t.coordination))
}

func (t meetingTools) create(ctx context.Context, input meetingCreateInput) (*commands.CreateMeetingResult, error) {
	if input.Title == "" {
		return nil, errors.New("title is required")
	}
	ownerID, err := actor(t.app, input.UserID)
	if err != nil {
		return nil, err
	}
	if input.MaxParticipants == 0 {
		input.MaxParticipants = 10
	}
	return t.app.CreateMeetingHandler.Handle(ctx, commands.CreateMeetingCommand{
		OwnerID:         ownerID,
		Title:           input.Title,
		Description:     input.Description,
		Location:        input.Location,
		MaxParticipants: input.MaxParticipants,
	})
}

func (t meetingTools) list(ctx context.Context, input meetingListInput) ([]queries.MeetingDTO, error) {
	userID, err := actor(t.app, input.UserID)
	if err != nil {
		return nil, err
	}
	return t.app.ListMeetingsHandler.Handle(ctx, queries.ListMeetingsQuery{
		UserID:   userID,
		OpenOnly: input.OpenOnly,
		Limit:    input.Limit,
	})
}

func (t meetingTools) get(ctx context.Context, input meetingRefInput) (*queries.MeetingDTO, error) {
	meetingID, err := parseUUID(input.MeetingID)
	if err != nil {
		return nil, err
	}
	return t.app.GetMeetingHandler.Handle(ctx, queries.GetMeetingQuery{MeetingID: meetingID})
}

func (t meetingTools) participation(action commands.ParticipationAction) func(context.Context, meetingRefInput) (*participationResult, error) {
	return func(ctx context.Context, input meetingRefInput) (*participationResult, error) {
		meetingID, userID, err := meetingAndActor(t.app, input.MeetingID, input.UserID)
		if err != nil {
			return nil, err
		}
		if err := t.app.ChangeParticipationHandler.Handle(ctx, commands.ChangeParticipationCommand{
			MeetingID: meetingID,
			ActorID:   userID,
			UserID:    userID,
			Action:    action,
		}); err != nil {
			return nil, err
		}
		return &participationResult{MeetingID: meetingID.String(), UserID: userID.String(), Action: string(action)}, nil
	}
}

func (t meetingTools) decision(action commands.ParticipationAction) func(context.Context, meetingDecisionInput) (*participationResult, error) {
	return func(ctx context.Context, input meetingDecisionInput) (*participationResult, error) {
		meetingID, ownerID, err := meetingAndActor(t.app, input.MeetingID, input.UserID)
		if err != nil {
			return nil, err
		}
		requesterID, err := parseUUID(input.RequesterID)
		if err != nil {
			return nil, err
		}
		if err := t.app.ChangeParticipationHandler.Handle(ctx, commands.ChangeParticipationCommand{
			MeetingID: meetingID,
			ActorID:   ownerID,
			UserID:    requesterID,
			Action:    action,
		}); err != nil {
			return nil, err
		}
		return &participationResult{MeetingID: meetingID.String(), UserID: requesterID.String(), Action: string(action)}, nil
	}
}

func (t meetingTools) setStatus(ctx context.Context, input meetingStatusInput) (map[string]any, error) {
	meetingID, ownerID, err := meetingAndActor(t.app, input.MeetingID, input.UserID)
	if err != nil {
		return nil, err
	}
	if err := t.app.UpdateStatusHandler.Handle(ctx, commands.UpdateStatusCommand{
		MeetingID: meetingID,
		ActorID:   ownerID,
		Status:    input.Status,
	}); err != nil {
		return nil, err
	}
	return map[string]any{"meeting_id": meetingID, "status": input.Status}, nil
}

func (t meetingTools) setAvailability(ctx context.Context, input availabilitySetInput) (*commands.SetAvailabilityResult, error) {
	meetingID, userID, err := meetingAndActor(t.app, input.MeetingID, input.UserID)
	if err != nil {
		return nil, err
	}
	return t.app.SetAvailabilityHandler.Handle(ctx, commands.SetAvailabilityCommand{
		MeetingID: meetingID,
		UserID:    userID,
		SlotKeys:  input.SlotKeys,
	})
}

func (t meetingTools) coordination(ctx context.Context, input meetingRefInput) (*queries.CoordinationDTO, error) {
	meetingID, userID, err := meetingAndActor(t.app, input.MeetingID, input.UserID)
	if err != nil {
		return nil, err
	}
	return t.app.GetCoordinationHandler.Handle(ctx, queries.GetCoordinationQuery{
		MeetingID: meetingID,
		UserID:    userID,
	})
}
