// Command mcp exposes Huddle's tools, resources and prompts to MCP clients
// over streamable HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/huddle/internal/app"
	mcpinternal "github.com/felixgeelhaar/huddle/internal/mcp"
	"github.com/felixgeelhaar/huddle/pkg/config"
	"github.com/felixgeelhaar/huddle/pkg/observability"
	"github.com/google/uuid"
)

func main() {
	logger := observability.LoggerFromEnv()
	if err := run(logger); err != nil {
		logger.Error("mcp server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	userID, err := uuid.Parse(cfg.UserID)
	if err != nil {
		return fmt.Errorf("invalid HUDDLE_USER_ID: %w", err)
	}

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init container: %w", err)
	}
	defer container.Close()

	err = mcpinternal.Serve(ctx, cfg, mcpinternal.NewCLIApp(container, userID), logger)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
