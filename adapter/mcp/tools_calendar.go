package mcp

import (
	"context"

	"github.com/felixgeelhaar/huddle/internal/calendar/application/queries"
	"github.com/felixgeelhaar/huddle/internal/calendar/domain"
	"github.com/felixgeelhaar/mcp-go"
)

type calendarEventsInput struct {
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	UserID string `json:"user_id,omitempty"`
}

func registerCalendarTools(srv *mcp.Server, deps ToolDependencies) {
	app := deps.App

	srv.Tool("calendar.events").
		Description("List the caller's personal meeting events between two dates (YYYY-MM-DD, both optional)").
		Handler(func(ctx context.Context, input calendarEventsInput) ([]domain.PersonalEvent, error) {
			userID, err := actor(app, input.UserID)
			if err != nil {
				return nil, err
			}
			return app.ListPersonalEventsHandler.Handle(ctx, queries.ListPersonalEventsQuery{
				UserID: userID,
				From:   input.From,
				To:     input.To,
			})
		})
}
