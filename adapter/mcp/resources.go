package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	calendarQueries "github.com/felixgeelhaar/huddle/internal/calendar/application/queries"
	meetingQueries "github.com/felixgeelhaar/huddle/internal/meetings/application/queries"
	"github.com/felixgeelhaar/mcp-go"
)

// RegisterResources registers MCP resources that expose meeting and
// calendar data for the configured user.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	if deps.App == nil {
		return fmt.Errorf("app is required")
	}
	app := deps.App

	srv.Resource("huddle://meetings").
		Name("Meetings").
		Description("Meetings the current user owns or belongs to").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			meetings, err := app.ListMeetingsHandler.Handle(ctx, meetingQueries.ListMeetingsQuery{
				UserID: app.CurrentUserID,
				Limit:  100,
			})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, meetings)
		})

	srv.Resource("huddle://meetings/open").
		Name("Open Meetings").
		Description("Meetings currently accepting join requests").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			meetings, err := app.ListMeetingsHandler.Handle(ctx, meetingQueries.ListMeetingsQuery{
				UserID:   app.CurrentUserID,
				OpenOnly: true,
				Limit:    100,
			})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, meetings)
		})

	srv.Resource("huddle://calendar/events").
		Name("Personal Events").
		Description("Upcoming meeting occurrences on the current user's calendar").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			events, err := app.ListPersonalEventsHandler.Handle(ctx, calendarQueries.ListPersonalEventsQuery{
				UserID: app.CurrentUserID,
			})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, events)
		})

	srv.Resource("huddle://system/health").
		Name("Health").
		Description("Dependency health checks").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if app.Health == nil {
				return nil, fmt.Errorf("health registry not configured")
			}
			return jsonResource(uri, app.Health.GetOverallHealth(ctx))
		})

	srv.Resource("huddle://system/metrics").
		Name("Metrics").
		Description("In-process counters, gauges and timing summaries").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if app.Metrics == nil {
				return nil, fmt.Errorf("metrics not configured")
			}
			return jsonResource(uri, app.Metrics.Snapshot())
		})

	return nil
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
