package mcp

import (
	"github.com/felixgeelhaar/huddle/adapter/cli"
	"github.com/felixgeelhaar/huddle/internal/app"
	"github.com/google/uuid"
)

// NewCLIApp creates a CLI application instance backed by the provided
// container, acting as currentUser unless a tool call names another user.
func NewCLIApp(container *app.Container, currentUser uuid.UUID) *cli.App {
	cliApp := cli.NewApp(container)
	cliApp.SetCurrentUserID(currentUser)
	return cliApp
}
