package cli

import (
	"context"
	"log/slog"

	internalApp "github.com/felixgeelhaar/huddle/internal/app"
	attendanceCommands "github.com/felixgeelhaar/huddle/internal/attendance/application/commands"
	attendanceQueries "github.com/felixgeelhaar/huddle/internal/attendance/application/queries"
	calendarQueries "github.com/felixgeelhaar/huddle/internal/calendar/application/queries"
	meetingCommands "github.com/felixgeelhaar/huddle/internal/meetings/application/commands"
	meetingQueries "github.com/felixgeelhaar/huddle/internal/meetings/application/queries"
	"github.com/felixgeelhaar/huddle/pkg/observability"
	"github.com/google/uuid"
)

// App holds the CLI application dependencies.
type App struct {
	// Meeting Command Handlers
	CreateMeetingHandler           *meetingCommands.CreateMeetingHandler
	ChangeParticipationHandler     *meetingCommands.ChangeParticipationHandler
	UpdateStatusHandler            *meetingCommands.UpdateStatusHandler
	SetAvailabilityHandler         *meetingCommands.SetAvailabilityHandler
	CommitSuggestionHandler        *meetingCommands.CommitSuggestionHandler
	RemoveSuggestedScheduleHandler *meetingCommands.RemoveSuggestedScheduleHandler
	SetRecurringScheduleHandler    *meetingCommands.SetRecurringScheduleHandler
	RemoveRecurringScheduleHandler *meetingCommands.RemoveRecurringScheduleHandler

	// Meeting Query Handlers
	GetMeetingHandler      *meetingQueries.GetMeetingHandler
	ListMeetingsHandler    *meetingQueries.ListMeetingsHandler
	GetSuggestionsHandler  *meetingQueries.GetSuggestionsHandler
	GetCoordinationHandler *meetingQueries.GetCoordinationHandler

	// Attendance Handlers
	StartAttendanceHandler      *attendanceCommands.StartAttendanceHandler
	SubmitAttendanceCodeHandler *attendanceCommands.SubmitAttendanceCodeHandler
	EndAttendanceHandler        *attendanceCommands.EndAttendanceHandler
	SessionStatusHandler        *attendanceQueries.GetSessionStatusHandler
	AttendanceHistoryHandler    *attendanceQueries.HistoryHandler

	// Calendar Query Handlers
	ListPersonalEventsHandler *calendarQueries.ListPersonalEventsHandler

	Health  *observability.HealthRegistry
	Logger  *slog.Logger
	Metrics *observability.InMemoryMetrics

	// Flush delivers queued domain events before the process exits.
	Flush func(ctx context.Context) error

	// CurrentUserID is the configured user; --as overrides it per command.
	CurrentUserID uuid.UUID
}

// NewApp creates a new CLI application from a wired container.
func NewApp(c *internalApp.Container) *App {
	return &App{
		CreateMeetingHandler:           c.CreateMeetingHandler,
		ChangeParticipationHandler:     c.ChangeParticipationHandler,
		UpdateStatusHandler:            c.UpdateStatusHandler,
		SetAvailabilityHandler:         c.SetAvailabilityHandler,
		CommitSuggestionHandler:        c.CommitSuggestionHandler,
		RemoveSuggestedScheduleHandler: c.RemoveSuggestedScheduleHandler,
		SetRecurringScheduleHandler:    c.SetRecurringScheduleHandler,
		RemoveRecurringScheduleHandler: c.RemoveRecurringScheduleHandler,
		GetMeetingHandler:              c.GetMeetingHandler,
		ListMeetingsHandler:            c.ListMeetingsHandler,
		GetSuggestionsHandler:          c.GetSuggestionsHandler,
		GetCoordinationHandler:         c.GetCoordinationHandler,
		StartAttendanceHandler:         c.StartAttendanceHandler,
		SubmitAttendanceCodeHandler:    c.SubmitAttendanceCodeHandler,
		EndAttendanceHandler:           c.EndAttendanceHandler,
		SessionStatusHandler:           c.SessionStatusHandler,
		AttendanceHistoryHandler:       c.AttendanceHistoryHandler,
		ListPersonalEventsHandler:      c.ListPersonalEventsHandler,
		Health:                         c.Health,
		Logger:                         c.Logger,
		Metrics:                        c.Metrics,
		Flush:                          c.Flush,
	}
}

// SetCurrentUserID sets the current user ID.
func (a *App) SetCurrentUserID(id uuid.UUID) {
	a.CurrentUserID = id
}

// ActingUserID returns the --as user if given, else the configured user.
func (a *App) ActingUserID() (uuid.UUID, error) {
	if actAs == "" {
		return a.CurrentUserID, nil
	}
	return ParseID(actAs, "user")
}

var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
