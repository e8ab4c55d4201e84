package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	attendanceCommands "github.com/felixgeelhaar/huddle/internal/attendance/application/commands"
	attendanceQueries "github.com/felixgeelhaar/huddle/internal/attendance/application/queries"
	calendarQueries "github.com/felixgeelhaar/huddle/internal/calendar/application/queries"
	calendarDomain "github.com/felixgeelhaar/huddle/internal/calendar/domain"
	meetingCommands "github.com/felixgeelhaar/huddle/internal/meetings/application/commands"
	meetingQueries "github.com/felixgeelhaar/huddle/internal/meetings/application/queries"
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/huddle/pkg/config"
	"github.com/felixgeelhaar/huddle/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:                   "test",
		UserID:                   "00000000-0000-0000-0000-000000000001",
		SQLitePath:               filepath.Join(t.TempDir(), "huddle.db"),
		OutboxPollInterval:       50 * time.Millisecond,
		OutboxBatchSize:          100,
		OutboxMaxRetries:         3,
		AttendanceTTL:            3 * time.Minute,
		AttendanceSweepInterval:  time.Second,
		AttendanceSweepBatch:     10,
		SlotGridStart:            "09:00",
		SlotGridEnd:              "23:00",
		SlotGridGranularity:      30 * time.Minute,
		Timezone:                 "UTC",
		MirrorBreakerMaxRequests: 1,
		MirrorBreakerInterval:    time.Minute,
		MirrorBreakerTimeout:     30 * time.Second,
	}
}

func newTestContainer(t *testing.T) *Container {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := NewContainer(context.Background(), testConfig(t), logger)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNewContainer_SQLite(t *testing.T) {
	c := newTestContainer(t)

	assert.Equal(t, database.DriverSQLite, c.DBDriver)
	assert.NotNil(t, c.InProcessEventBus)
	assert.Nil(t, c.RabbitPublisher)
	assert.Nil(t, c.RedisClient)
	assert.Nil(t, c.CalendarMirror)
	assert.Equal(t, 28, c.Grid.SlotsPerDay())

	health := c.Health.GetOverallHealth(context.Background())
	assert.Equal(t, observability.HealthStatusHealthy, health.Status)
	assert.Contains(t, health.Checks, "database")
	assert.Contains(t, health.Checks, "outbox")
}

func TestNewContainer_InvalidGrid(t *testing.T) {
	cfg := testConfig(t)
	cfg.SlotGridStart = "25:00"

	_, err := NewContainer(context.Background(), cfg, nil)
	assert.Error(t, err)
}

// TestContainer_ScheduleFanout drives a meeting from creation to a committed
// schedule and checks that every participant got a personal event.
func TestContainer_ScheduleFanout(t *testing.T) {
	ctx := context.Background()
	c := newTestContainer(t)
	owner, member := uuid.New(), uuid.New()

	created, err := c.CreateMeetingHandler.Handle(ctx, meetingCommands.CreateMeetingCommand{
		OwnerID:         owner,
		Title:           "Reading circle",
		MaxParticipants: 5,
	})
	require.NoError(t, err)
	meetingID := created.MeetingID

	require.NoError(t, c.ChangeParticipationHandler.Handle(ctx, meetingCommands.ChangeParticipationCommand{
		MeetingID: meetingID, ActorID: member, UserID: member, Action: meetingCommands.ActionRequest,
	}))
	require.NoError(t, c.ChangeParticipationHandler.Handle(ctx, meetingCommands.ChangeParticipationCommand{
		MeetingID: meetingID, ActorID: owner, UserID: member, Action: meetingCommands.ActionApprove,
	}))

	slots := []string{"0-14-00", "0-14-30"}
	for _, userID := range []uuid.UUID{owner, member} {
		_, err := c.SetAvailabilityHandler.Handle(ctx, meetingCommands.SetAvailabilityCommand{
			MeetingID: meetingID, UserID: userID, SlotKeys: slots,
		})
		require.NoError(t, err)
	}

	suggestions, err := c.GetSuggestionsHandler.Handle(ctx, meetingQueries.GetSuggestionsQuery{MeetingID: meetingID, UserID: owner})
	require.NoError(t, err)
	require.NotEmpty(t, suggestions.Suggestions)
	top := suggestions.Suggestions[0]
	assert.Equal(t, 2, top.RunLength)
	assert.Equal(t, 100, top.AvailabilityRatePercent)

	committed, err := c.CommitSuggestionHandler.Handle(ctx, meetingCommands.CommitSuggestionCommand{
		MeetingID: meetingID, ActorID: owner, StartSlotKey: slots[0], RunLength: 2,
	})
	require.NoError(t, err)
	require.NoError(t, c.Flush(ctx))

	for _, userID := range []uuid.UUID{owner, member} {
		events, err := c.ListPersonalEventsHandler.Handle(ctx, calendarQueries.ListPersonalEventsQuery{UserID: userID})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, committed.ScheduleID, events[0].ScheduleID)
		assert.Equal(t, calendarDomain.SourceSuggested, events[0].Source)
		assert.Equal(t, "14:00", events[0].StartTime)
		assert.Equal(t, "15:00", events[0].EndTime)
	}

	removed, err := c.RemoveSuggestedScheduleHandler.Handle(ctx, meetingCommands.RemoveSuggestedScheduleCommand{
		MeetingID: meetingID, ActorID: owner,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, removed.RetractedEvents)
	require.NoError(t, c.Flush(ctx))

	events, err := c.ListPersonalEventsHandler.Handle(ctx, calendarQueries.ListPersonalEventsQuery{UserID: member})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestContainer_AttendanceRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestContainer(t)
	owner, member := uuid.New(), uuid.New()

	created, err := c.CreateMeetingHandler.Handle(ctx, meetingCommands.CreateMeetingCommand{
		OwnerID: owner, Title: "Standup", MaxParticipants: 3,
	})
	require.NoError(t, err)
	meetingID := created.MeetingID
	require.NoError(t, c.ChangeParticipationHandler.Handle(ctx, meetingCommands.ChangeParticipationCommand{
		MeetingID: meetingID, ActorID: member, UserID: member, Action: meetingCommands.ActionRequest,
	}))
	require.NoError(t, c.ChangeParticipationHandler.Handle(ctx, meetingCommands.ChangeParticipationCommand{
		MeetingID: meetingID, ActorID: owner, UserID: member, Action: meetingCommands.ActionApprove,
	}))

	started, err := c.StartAttendanceHandler.Handle(ctx, attendanceCommands.StartAttendanceCommand{
		MeetingID: meetingID, ActorID: owner,
	})
	require.NoError(t, err)
	require.Len(t, started.Code, 6)

	require.NoError(t, c.SubmitAttendanceCodeHandler.Handle(ctx, attendanceCommands.SubmitAttendanceCodeCommand{
		MeetingID: meetingID, UserID: member, Code: started.Code,
	}))

	ended, err := c.EndAttendanceHandler.Handle(ctx, attendanceCommands.EndAttendanceCommand{
		MeetingID: meetingID, ActorID: owner,
	})
	require.NoError(t, err)
	assert.True(t, ended.Ended)
	assert.Equal(t, 1, ended.AttendedCount)
	assert.Equal(t, 2, ended.TotalParticipants)
	assert.Equal(t, 50, ended.RatePercent)

	history, err := c.AttendanceHistoryHandler.History(ctx, attendanceQueries.HistoryQuery{MeetingID: meetingID, UserID: owner})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, started.Date, history[0].Date)
}
