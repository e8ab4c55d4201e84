package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/huddle/adapter/cli"
	mcptools "github.com/felixgeelhaar/huddle/adapter/mcp"
	"github.com/felixgeelhaar/huddle/pkg/config"
	mcpgo "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/middleware"
)

// NewServer registers every tool, resource and prompt against cliApp.
func NewServer(cliApp *cli.App) (*mcpgo.Server, error) {
	if cliApp == nil {
		return nil, errors.New("CLI app is required")
	}

	srv := mcpgo.NewServer(mcpgo.ServerInfo{
		Name:    "huddle-mcp",
		Version: cli.Version,
		Capabilities: mcpgo.Capabilities{
			Tools:     true,
			Resources: true,
			Prompts:   true,
		},
	})

	deps := mcptools.ToolDependencies{App: cliApp}
	for name, register := range map[string]func(*mcpgo.Server, mcptools.ToolDependencies) error{
		"tools":     mcptools.RegisterCLITools,
		"resources": mcptools.RegisterResources,
		"prompts":   mcptools.RegisterPrompts,
	} {
		if err := register(srv, deps); err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
	}
	return srv, nil
}

// Serve listens on cfg.MCPAddr until ctx is cancelled. Requests need the
// bearer token when MCP_AUTH_TOKEN is set.
func Serve(ctx context.Context, cfg *config.Config, cliApp *cli.App, logger *slog.Logger) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	srv, err := NewServer(cliApp)
	if err != nil {
		return err
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("mcp server listening", "addr", cfg.MCPAddr, "auth", cfg.MCPAuthToken != "")
	return mcpgo.ServeHTTPWithMiddleware(ctx, srv, cfg.MCPAddr, nil, mcpgo.WithMiddleware(middlewareStack(cfg, logger)...))
}

func middlewareStack(cfg *config.Config, logger *slog.Logger) []middleware.Middleware {
	log := slogAdapter{logger}
	stack := middleware.DefaultStack(log)
	if cfg.MCPAuthToken == "" {
		logger.Warn("MCP_AUTH_TOKEN not set; serving without authentication")
		return stack
	}

	tokens := middleware.StaticTokens(map[string]*middleware.Identity{
		cfg.MCPAuthToken: {ID: "huddle", Name: "huddle"},
	})
	auth := middleware.Auth(middleware.BearerTokenAuthenticator(tokens), middleware.WithAuthLogger(log))
	return append([]middleware.Middleware{auth}, stack...)
}

// slogAdapter satisfies the middleware logger with slog.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Debug(msg string, fields ...middleware.Field) {
	a.log(slog.LevelDebug, msg, fields)
}

func (a slogAdapter) Info(msg string, fields ...middleware.Field) {
	a.log(slog.LevelInfo, msg, fields)
}

func (a slogAdapter) Warn(msg string, fields ...middleware.Field) {
	a.log(slog.LevelWarn, msg, fields)
}

func (a slogAdapter) Error(msg string, fields ...middleware.Field) {
	a.log(slog.LevelError, msg, fields)
}

func (a slogAdapter) log(level slog.Level, msg string, fields []middleware.Field) {
	attrs := make([]slog.Attr, len(fields))
	for i, f := range fields {
		attrs[i] = slog.Any(f.Key, f.Value)
	}
	a.logger.LogAttrs(context.Background(), level, msg, attrs...)
}
