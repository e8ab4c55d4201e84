package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/huddle/pkg/observability"
	"github.com/felixgeelhaar/mcp-go"
)

type emptyInput struct{}

func registerCoreTools(srv *mcp.Server, deps ToolDependencies) {
	app := deps.App

	srv.Tool("huddle.health").
		Description("Report database, broker and outbox health").
		Handler(func(ctx context.Context, _ emptyInput) (*observability.OverallHealth, error) {
			if app.Health == nil {
				return nil, errors.New("health checks are not configured")
			}
			health := app.Health.GetOverallHealth(ctx)
			return &health, nil
		})
}
