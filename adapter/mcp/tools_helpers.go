package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/huddle/adapter/cli"
	"github.com/google/uuid"
)

func parseUUID(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.UUID{}, errors.New("id is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid id: %w", err)
	}
	return id, nil
}

// actor resolves who a call acts as: the given user_id, else the
// server's configured user.
func actor(app *cli.App, userID string) (uuid.UUID, error) {
	if userID == "" {
		return app.CurrentUserID, nil
	}
	return parseUUID(userID)
}

// meetingAndActor parses the meeting ID and resolves the caller.
func meetingAndActor(app *cli.App, meetingID, userID string) (uuid.UUID, uuid.UUID, error) {
	mid, err := parseUUID(meetingID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	uid, err := actor(app, userID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return mid, uid, nil
}

// flush delivers events queued by a command so personal events exist by
// the time the tool returns.
func flush(ctx context.Context, app *cli.App) {
	if app.Flush != nil {
		_ = app.Flush(ctx)
	}
}
