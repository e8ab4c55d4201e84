package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/huddle/adapter/cli"
	"github.com/felixgeelhaar/huddle/pkg/observability"
	"github.com/felixgeelhaar/mcp-go"
)

// ToolDependencies provides handlers and context for MCP tools.
type ToolDependencies struct {
	App *cli.App
}

// RegisterCLITools registers MCP tools that mirror CLI functionality.
func RegisterCLITools(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	if deps.App == nil {
		return errors.New("app is required")
	}

	registerCoreTools(srv, deps)
	registerMeetingTools(srv, deps)
	registerScheduleTools(srv, deps)
	registerAttendanceTools(srv, deps)
	registerCalendarTools(srv, deps)
	return nil
}

// timed reports each call of a tool as an operation named after it.
func timed[In, Out any](deps ToolDependencies, name string, fn func(context.Context, In) (Out, error)) func(context.Context, In) (Out, error) {
	var metrics observability.Metrics
	if deps.App.Metrics != nil {
		metrics = deps.App.Metrics
	}
	return func(ctx context.Context, input In) (Out, error) {
		return observability.Observe(ctx, deps.App.Logger, metrics, name, func(ctx context.Context) (Out, error) {
			return fn(ctx, input)
		})
	}
}
