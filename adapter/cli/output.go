package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	attendanceDomain "github.com/felixgeelhaar/huddle/internal/attendance/domain"
	meetingsDomain "github.com/felixgeelhaar/huddle/internal/meetings/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// ErrNotInitialized is returned when a command runs without a database.
var ErrNotInitialized = errors.New("huddle is not initialized; check DATABASE_URL or SQLITE_PATH")

// RequireApp returns the wired application or ErrNotInitialized.
func RequireApp() (*App, error) {
	if app == nil {
		return nil, ErrNotInitialized
	}
	return app, nil
}

// ParseID parses a UUID argument, naming what it identifies on failure.
func ParseID(value, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s ID %q", what, value)
	}
	return id, nil
}

// JSONOutput reports whether --json was given.
func JSONOutput() bool {
	return jsonOutput
}

// Render prints v as indented JSON when --json is set, otherwise calls text.
func Render(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(cmd.OutOrStdout())
	return nil
}

func describeError(err error) string {
	switch {
	case errors.Is(err, meetingsDomain.ErrMeetingNotFound),
		errors.Is(err, meetingsDomain.ErrScheduleNotFound),
		errors.Is(err, meetingsDomain.ErrJoinRequestNotFound):
		return "Not found: " + err.Error()
	case errors.Is(err, meetingsDomain.ErrNotOwner),
		errors.Is(err, meetingsDomain.ErrNotParticipant),
		errors.Is(err, attendanceDomain.ErrNotOwner),
		errors.Is(err, attendanceDomain.ErrNotParticipant):
		return "Forbidden: " + err.Error()
	case errors.Is(err, meetingsDomain.ErrConcurrentModification),
		errors.Is(err, attendanceDomain.ErrConcurrentModification):
		return "Conflict: " + err.Error() + " (retry the command)"
	default:
		return "Error: " + err.Error()
	}
}
