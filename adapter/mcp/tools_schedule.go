package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/huddle/adapter/cli"
	"github.com/felixgeelhaar/huddle/internal/meetings/application/commands"
	"github.com/felixgeelhaar/huddle/internal/meetings/application/queries"
	"github.com/felixgeelhaar/mcp-go"
)

type suggestionsInput struct {
	MeetingID string `json:"meeting_id" jsonschema:"required"`
	Limit     int    `json:"limit,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

type commitInput struct {
	MeetingID    string `json:"meeting_id" jsonschema:"required"`
	StartSlotKey string `json:"start_slot_key" jsonschema:"required"`
	RunLength    int    `json:"run_length,omitempty"`
	Location     string `json:"location,omitempty"`
	UserID       string `json:"user_id,omitempty"`
}

type recurringInput struct {
	MeetingID string `json:"meeting_id" jsonschema:"required"`
	Frequency string `json:"frequency,omitempty"`
	DayOfWeek string `json:"day_of_week" jsonschema:"required"`
	StartTime string `json:"start_time" jsonschema:"required"`
	EndTime   string `json:"end_time" jsonschema:"required"`
	From      string `json:"from" jsonschema:"required"`
	Until     string `json:"until" jsonschema:"required"`
	Location  string `json:"location,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

type scheduleTools struct {
	app *cli.App
}

func registerScheduleTools(srv *mcp.Server, deps ToolDependencies) {
	t := scheduleTools{app: deps.App}

	srv.Tool("schedule.suggestions").
		Description("Rank the times most participants can make").
		Handler(timed(deps, "schedule.suggestions", t.suggestions))
	srv.Tool("schedule.commit").
		Description("Commit a suggestion as the next meeting date (owner only)").
		Handler(timed(deps, "schedule.commit", t.commit))
	srv.Tool("schedule.remove").
		Description("Remove the committed date and its personal events (owner only)").
		Handler(timed(deps, "schedule.remove", t.remove))
	srv.Tool("schedule.set_recurring").
		Description("Install or replace a weekly or biweekly pattern (owner only)").
		Handler(timed(deps, "schedule.set_recurring", t.setRecurring))
	srv.Tool("schedule.remove_recurring").
		Description("Remove the recurring pattern and its personal events (owner only)").
		Handler(timed(deps, "schedule.remove_recurring", t.removeRecurring))
}

func (t scheduleTools) suggestions(ctx context.Context, input suggestionsInput) (*queries.SuggestionsDTO, error) {
	meetingID, userID, err := meetingAndActor(t.app, input.MeetingID, input.UserID)
	if err != nil {
		return nil, err
	}
	return t.app.GetSuggestionsHandler.Handle(ctx, queries.GetSuggestionsQuery{
		MeetingID: meetingID,
		UserID:    userID,
		Limit:     input.Limit,
	})
}

func (t scheduleTools) commit(ctx context.Context, input commitInput) (*commands.CommitSuggestionResult, error) {
	meetingID, ownerID, err := meetingAndActor(t.app, input.MeetingID, input.UserID)
	if err != nil {
		return nil, err
	}
	if input.RunLength == 0 {
		input.RunLength = 1
	}
	result, err := t.app.CommitSuggestionHandler.Handle(ctx, commands.CommitSuggestionCommand{
		MeetingID:    meetingID,
		ActorID:      ownerID,
		StartSlotKey: input.StartSlotKey,
		RunLength:    input.RunLength,
		Location:     input.Location,
	})
	if err != nil {
		return nil, err
	}
	flush(ctx, t.app)
	return result, nil
}

func (t scheduleTools) remove(ctx context.Context, input meetingRefInput) (*commands.RemoveScheduleResult, error) {
	meetingID, ownerID, err := meetingAndActor(t.app, input.MeetingID, input.UserID)
	if err != nil {
		return nil, err
	}
	result, err := t.app.RemoveSuggestedScheduleHandler.Handle(ctx, commands.RemoveSuggestedScheduleCommand{
		MeetingID: meetingID,
		ActorID:   ownerID,
	})
	if err != nil {
		return nil, err
	}
	flush(ctx, t.app)
	return result, nil
}

func (t scheduleTools) setRecurring(ctx context.Context, input recurringInput) (*commands.SetRecurringScheduleResult, error) {
	meetingID, ownerID, err := meetingAndActor(t.app, input.MeetingID, input.UserID)
	if err != nil {
		return nil, err
	}
	day, err := parseWeekday(input.DayOfWeek)
	if err != nil {
		return nil, err
	}
	if input.Frequency == "" {
		input.Frequency = "weekly"
	}
	result, err := t.app.SetRecurringScheduleHandler.Handle(ctx, commands.SetRecurringScheduleCommand{
		MeetingID: meetingID,
		ActorID:   ownerID,
		Frequency: input.Frequency,
		DayOfWeek: day,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		From:      input.From,
		Until:     input.Until,
		Location:  input.Location,
	})
	if err != nil {
		return nil, err
	}
	flush(ctx, t.app)
	return result, nil
}

func (t scheduleTools) removeRecurring(ctx context.Context, input meetingRefInput) (*commands.RemoveScheduleResult, error) {
	meetingID, ownerID, err := meetingAndActor(t.app, input.MeetingID, input.UserID)
	if err != nil {
		return nil, err
	}
	result, err := t.app.RemoveRecurringScheduleHandler.Handle(ctx, commands.RemoveRecurringScheduleCommand{
		MeetingID: meetingID,
		ActorID:   ownerID,
	})
	if err != nil {
		return nil, err
	}
	flush(ctx, t.app)
	return result, nil
}

func parseWeekday(value string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if v == name || v == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid day_of_week %q", value)
}
