package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for common coordination workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("find_meeting_time").
		Description("Walk through collecting availability and committing the best time for a meeting.").
		Argument("meeting_id", "ID of the meeting to schedule", true).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			meetingID := args["meeting_id"]
			if meetingID == "" {
				return nil, fmt.Errorf("meeting_id is required")
			}
			return userPrompt("Find a Meeting Time", fmt.Sprintf(`Help me pick a time for meeting %s. Please:

1. Call meeting.get to see the roster and any existing schedule
2. Call availability.coordination to check how many members have responded
3. If fewer than half have responded, tell me who is missing before going further
4. Call schedule.suggestions and summarize the top three options

For each option give the weekday, start and end time, and how many members can make it.
Prefer consecutive blocks over single slots when the availability rate is equal.
Once I choose, commit it with schedule.commit using the option's start slot key and run length.`, meetingID)), nil
		})

	srv.Prompt("attendance_review").
		Description("Review attendance trends for a meeting and flag members who are drifting away.").
		Argument("meeting_id", "ID of the meeting to review", true).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			meetingID := args["meeting_id"]
			if meetingID == "" {
				return nil, fmt.Errorf("meeting_id is required")
			}
			return userPrompt("Attendance Review", fmt.Sprintf(`Review attendance for meeting %s. Please:

1. Call attendance.stats for the overall numbers
2. Call attendance.members for each member's rate
3. Call attendance.history and look at the last five sessions

Report the average rate and whether it is rising or falling.
List members below 50%% attendance, and anyone who missed the last three sessions in a row.`, meetingID)), nil
		})

	srv.Prompt("run_check_in").
		Description("Step through opening an attendance check-in and closing it out.").
		Argument("meeting_id", "ID of the meeting that is starting", true).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			meetingID := args["meeting_id"]
			if meetingID == "" {
				return nil, fmt.Errorf("meeting_id is required")
			}
			return userPrompt("Run Check-in", fmt.Sprintf(`Meeting %s is starting. Please:

1. Call attendance.start and show me the code in large text so I can read it out
2. When I say so, call attendance.status and tell me who has checked in
3. When I confirm, call attendance.end and report the final attendance rate`, meetingID)), nil
		})

	return nil
}

func userPrompt(description, text string) *mcp.PromptResult {
	return &mcp.PromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role: string(mcp.RoleUser),
				Content: mcp.TextContent{
					Type: "text",
					Text: text,
				},
			},
		},
	}
}
