package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/huddle/adapter/cli"
	"github.com/felixgeelhaar/huddle/adapter/cli/attendance"
	"github.com/felixgeelhaar/huddle/adapter/cli/availability"
	"github.com/felixgeelhaar/huddle/adapter/cli/calendar"
	"github.com/felixgeelhaar/huddle/adapter/cli/meeting"
	"github.com/felixgeelhaar/huddle/adapter/cli/schedule"
	"github.com/felixgeelhaar/huddle/internal/app"
	"github.com/felixgeelhaar/huddle/pkg/config"
	"github.com/felixgeelhaar/huddle/pkg/observability"
	"github.com/google/uuid"
)

func main() {
	logger := observability.LoggerFromEnv()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	userID, err := uuid.Parse(cfg.UserID)
	if err != nil {
		container.Close()
		logger.Error("invalid HUDDLE_USER_ID", "error", err)
		os.Exit(1)
	}

	cliApp := cli.NewApp(container)
	cliApp.SetCurrentUserID(userID)
	cli.SetApp(cliApp)

	cli.AddCommand(meeting.Cmd)
	cli.AddCommand(availability.Cmd)
	cli.AddCommand(schedule.Cmd)
	cli.AddCommand(attendance.Cmd)
	cli.AddCommand(calendar.Cmd)

	err = cli.ExecuteContext(ctx)
	container.Close()
	if err != nil {
		os.Exit(1)
	}
}
