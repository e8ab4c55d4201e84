package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	attendanceCommands "github.com/felixgeelhaar/huddle/internal/attendance/application/commands"
	attendanceQueries "github.com/felixgeelhaar/huddle/internal/attendance/application/queries"
	attendanceWorkers "github.com/felixgeelhaar/huddle/internal/attendance/application/workers"
	attendanceDomain "github.com/felixgeelhaar/huddle/internal/attendance/domain"
	attendancePersistence "github.com/felixgeelhaar/huddle/internal/attendance/infrastructure/persistence"
	attendanceRoster "github.com/felixgeelhaar/huddle/internal/attendance/infrastructure/roster"
	calendarApp "github.com/felixgeelhaar/huddle/internal/calendar/application"
	calendarQueries "github.com/felixgeelhaar/huddle/internal/calendar/application/queries"
	calendarSubs "github.com/felixgeelhaar/huddle/internal/calendar/application/subscribers"
	calendarDomain "github.com/felixgeelhaar/huddle/internal/calendar/domain"
	calendarPersistence "github.com/felixgeelhaar/huddle/internal/calendar/infrastructure/persistence"
	calendarSchedules "github.com/felixgeelhaar/huddle/internal/calendar/infrastructure/schedules"
	calendarSetup "github.com/felixgeelhaar/huddle/internal/calendar/setup"
	meetingCommands "github.com/felixgeelhaar/huddle/internal/meetings/application/commands"
	meetingQueries "github.com/felixgeelhaar/huddle/internal/meetings/application/queries"
	meetingServices "github.com/felixgeelhaar/huddle/internal/meetings/application/services"
	meetingsDomain "github.com/felixgeelhaar/huddle/internal/meetings/domain"
	meetingPersistence "github.com/felixgeelhaar/huddle/internal/meetings/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/huddle/internal/shared/application"
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/huddle/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/huddle/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/lock"
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/huddle/pkg/config"
	"github.com/felixgeelhaar/huddle/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config   *config.Config
	Logger   *slog.Logger
	Metrics  *observability.InMemoryMetrics
	Health   *observability.HealthRegistry
	Location *time.Location
	Grid     meetingsDomain.SlotGrid

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis
	RedisClient *redis.Client
	Locker      lock.Locker

	// Repositories
	MeetingRepo       meetingsDomain.Repository
	RegisterRepo      *attendancePersistence.RegisterRepository
	PersonalEventRepo calendarDomain.Repository
	OutboxRepo        *outbox.SQLRepository

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Event delivery. Exactly one of InProcessEventBus and RabbitPublisher is set.
	EventPublisher    eventbus.Publisher
	InProcessEventBus *eventbus.InProcessEventBus
	RabbitPublisher   *eventbus.RabbitMQPublisher
	OutboxProcessor   *outbox.Processor

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

	// Attendance
	AttendanceExecutor          *attendanceCommands.Executor
	StartAttendanceHandler      *attendanceCommands.StartAttendanceHandler
	SubmitAttendanceCodeHandler *attendanceCommands.SubmitAttendanceCodeHandler
	EndAttendanceHandler        *attendanceCommands.EndAttendanceHandler
	ExpireAttendanceHandler     *attendanceCommands.ExpireAttendanceHandler
	SessionStatusHandler        *attendanceQueries.GetSessionStatusHandler
	AttendanceHistoryHandler    *attendanceQueries.HistoryHandler
	ExpirySweeper               *attendanceWorkers.ExpirySweeper

	// Calendar fan-out
	CalendarMirror            calendarApp.Mirror
	FanoutService             *calendarApp.FanoutService
	ScheduleSubscriber        *calendarSubs.ScheduleSubscriber
	ListPersonalEventsHandler *calendarQueries.ListPersonalEventsHandler
}

// NewContainer creates and wires all dependencies. An empty DATABASE_URL
// selects SQLite; RabbitMQ and Redis are used only when configured.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealthRegistry(),
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	c.Location = loc

	grid, err := slotGridFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	c.Grid = grid

	if err := c.initDatabase(ctx); err != nil {
		return nil, err
	}
	if err := c.initLocker(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initEventDelivery(); err != nil {
		c.Close()
		return nil, err
	}

	// Repositories
	c.MeetingRepo = meetingPersistence.NewMeetingRepository(c.DBConn, c.Grid)
	c.RegisterRepo = attendancePersistence.NewRegisterRepository(c.DBConn)
	c.PersonalEventRepo = calendarPersistence.NewPersonalEventRepository(c.DBConn)
	c.UnitOfWork = database.NewUnitOfWork(c.DBConn)

	// Calendar fan-out comes first: schedule removal retracts through it.
	mirror, err := calendarSetup.NewMirror(ctx, calendarSetup.MirrorConfig{
		Provider:           cfg.CalendarMirror,
		CalDAVURL:          cfg.CalDAVURL,
		CalDAVUsername:     cfg.CalDAVUsername,
		CalDAVPassword:     cfg.CalDAVPassword,
		CalDAVCalendarPath: cfg.CalDAVCalendarPath,
		GoogleClientID:     cfg.GoogleClientID,
		GoogleClientSecret: cfg.GoogleClientSecret,
		GoogleRefreshToken: cfg.GoogleRefreshToken,
		GoogleCalendarID:   cfg.GoogleCalendarID,
		Location:           c.Location,
	}, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to configure calendar mirror: %w", err)
	}
	c.CalendarMirror = mirror
	c.FanoutService = calendarApp.NewFanoutService(c.PersonalEventRepo, mirror, calendarApp.BreakerConfig{
		MaxRequests:      uint32(max(cfg.MirrorBreakerMaxRequests, 1)),
		Interval:         cfg.MirrorBreakerInterval,
		Timeout:          cfg.MirrorBreakerTimeout,
		FailureThreshold: uint32(max(cfg.MirrorBreakerFailureThreshold, 0)),
	}, c.Metrics, logger)
	c.ScheduleSubscriber = calendarSubs.NewScheduleSubscriber(c.FanoutService, calendarSchedules.NewMeetingLookup(c.MeetingRepo), logger)
	c.ListPersonalEventsHandler = calendarQueries.NewListPersonalEventsHandler(c.PersonalEventRepo)
	if c.InProcessEventBus != nil {
		c.InProcessEventBus.RegisterConsumer(c.ScheduleSubscriber)
	}

	// Meetings
	planner := meetingServices.NewOccurrencePlanner(c.Grid, c.Location)
	calculator := meetingServices.NewOptimalTimeCalculator(c.Grid)
	c.CreateMeetingHandler = meetingCommands.NewCreateMeetingHandler(c.MeetingRepo, c.OutboxRepo, c.UnitOfWork)
	c.ChangeParticipationHandler = meetingCommands.NewChangeParticipationHandler(c.MeetingRepo, c.OutboxRepo, c.UnitOfWork)
	c.UpdateStatusHandler = meetingCommands.NewUpdateStatusHandler(c.MeetingRepo, c.OutboxRepo, c.UnitOfWork)
	c.SetAvailabilityHandler = meetingCommands.NewSetAvailabilityHandler(c.MeetingRepo, c.OutboxRepo, c.UnitOfWork, c.Grid)
	c.CommitSuggestionHandler = meetingCommands.NewCommitSuggestionHandler(c.MeetingRepo, c.OutboxRepo, c.UnitOfWork, c.Grid, planner, logger)
	c.RemoveSuggestedScheduleHandler = meetingCommands.NewRemoveSuggestedScheduleHandler(c.MeetingRepo, c.OutboxRepo, c.UnitOfWork, c.FanoutService, logger)
	c.SetRecurringScheduleHandler = meetingCommands.NewSetRecurringScheduleHandler(c.MeetingRepo, c.OutboxRepo, c.UnitOfWork, planner, c.FanoutService, logger)
	c.RemoveRecurringScheduleHandler = meetingCommands.NewRemoveRecurringScheduleHandler(c.MeetingRepo, c.OutboxRepo, c.UnitOfWork, c.FanoutService, logger)

	c.GetMeetingHandler = meetingQueries.NewGetMeetingHandler(c.MeetingRepo)
	c.ListMeetingsHandler = meetingQueries.NewListMeetingsHandler(c.MeetingRepo)
	c.GetSuggestionsHandler = meetingQueries.NewGetSuggestionsHandler(c.MeetingRepo, calculator)
	c.GetCoordinationHandler = meetingQueries.NewGetCoordinationHandler(c.MeetingRepo, c.Grid)

	// Attendance
	rosters := attendanceRoster.NewMeetingRoster(c.MeetingRepo)
	c.AttendanceExecutor = attendanceCommands.NewExecutor(c.RegisterRepo, c.OutboxRepo, c.UnitOfWork, rosters, c.Locker, c.Metrics, logger)
	c.StartAttendanceHandler = attendanceCommands.NewStartAttendanceHandler(c.AttendanceExecutor, attendanceDomain.RandomCodes{}, cfg.AttendanceTTL, c.Location)
	c.SubmitAttendanceCodeHandler = attendanceCommands.NewSubmitAttendanceCodeHandler(c.AttendanceExecutor)
	c.EndAttendanceHandler = attendanceCommands.NewEndAttendanceHandler(c.AttendanceExecutor)
	c.ExpireAttendanceHandler = attendanceCommands.NewExpireAttendanceHandler(c.AttendanceExecutor)
	c.SessionStatusHandler = attendanceQueries.NewGetSessionStatusHandler(c.RegisterRepo, rosters, c.Location)
	c.AttendanceHistoryHandler = attendanceQueries.NewHistoryHandler(c.RegisterRepo, rosters)
	c.ExpirySweeper = attendanceWorkers.NewExpirySweeper(c.RegisterRepo, c.ExpireAttendanceHandler, attendanceWorkers.ExpirySweeperConfig{
		Interval:  cfg.AttendanceSweepInterval,
		BatchSize: cfg.AttendanceSweepBatch,
	}, logger)
	c.ExpirySweeper.SetMetrics(c.Metrics)

	// Outbox processor
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, outbox.ProcessorConfig{
		PollInterval:     cfg.OutboxPollInterval,
		BatchSize:        cfg.OutboxBatchSize,
		MaxRetries:       cfg.OutboxMaxRetries,
		RetryBackoffBase: outbox.DefaultProcessorConfig().RetryBackoffBase,
		RetryBackoffMax:  outbox.DefaultProcessorConfig().RetryBackoffMax,
	}, logger)
	c.OutboxProcessor.SetMetrics(c.Metrics)

	c.registerHealthChecks()

	logger.Info("container initialized",
		"driver", c.DBDriver,
		"bus", c.busName(),
		"distributed_lock", c.RedisClient != nil,
		"calendar_mirror", mirror != nil,
	)
	return c, nil
}

func slotGridFromConfig(cfg *config.Config) (meetingsDomain.SlotGrid, error) {
	start, err := meetingsDomain.ParseClock(cfg.SlotGridStart)
	if err != nil {
		return meetingsDomain.SlotGrid{}, fmt.Errorf("invalid SLOT_GRID_START: %w", err)
	}
	end, err := meetingsDomain.ParseClock(cfg.SlotGridEnd)
	if err != nil {
		return meetingsDomain.SlotGrid{}, fmt.Errorf("invalid SLOT_GRID_END: %w", err)
	}
	return meetingsDomain.NewSlotGrid(start, end, cfg.SlotGridGranularity)
}

func (c *Container) initDatabase(ctx context.Context) error {
	conn, err := database.Open(ctx, database.Config{
		URL:        c.Config.DatabaseURL,
		SQLitePath: c.Config.SQLitePath,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if err := migrations.Run(ctx, conn); err != nil {
		conn.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	c.DBConn = conn
	c.DBDriver = conn.Driver()
	c.OutboxRepo = outbox.NewSQLRepository(conn)
	c.Logger.Info("connected to database", "driver", c.DBDriver)
	return nil
}

// initLocker always serializes per meeting in-process and adds Redis on top
// when REDIS_URL is configured.
func (c *Container) initLocker(ctx context.Context) error {
	local := lock.NewMemory()
	c.Locker = local
	if c.Config.RedisURL == "" {
		return nil
	}

	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, using process-local locks", "error", err)
		return nil
	}

	c.RedisClient = client
	c.Locker = lock.NewLayered(local, lock.NewRedis(client, lock.DefaultRedisConfig(), c.Logger))
	c.Logger.Info("connected to Redis")
	return nil
}

func (c *Container) initEventDelivery() error {
	if c.Config.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
		if err == nil {
			c.RabbitPublisher = publisher
			c.EventPublisher = publisher
			return nil
		}
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		c.Logger.Warn("RabbitMQ not available, using in-process bus", "error", err)
	}

	c.InProcessEventBus = eventbus.NewInProcessEventBus(c.Logger)
	c.EventPublisher = c.InProcessEventBus
	return nil
}

func (c *Container) busName() string {
	if c.RabbitPublisher != nil {
		return "rabbitmq"
	}
	return "in-process"
}

func (c *Container) registerHealthChecks() {
	c.Health.Register("database", observability.DatabaseHealthChecker(c.DBConn.Ping))
	if c.RedisClient != nil {
		c.Health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
			return c.RedisClient.Ping(ctx).Err()
		}))
	}
	if c.RabbitPublisher != nil {
		c.Health.Register("rabbitmq", observability.RabbitMQHealthChecker(c.RabbitPublisher.Ping))
	}
	c.Health.Register("outbox", observability.OutboxHealthChecker(func() observability.OutboxSnapshot {
		stats := c.OutboxProcessor.GetStats()
		return observability.OutboxSnapshot{
			Running:    stats.IsRunning,
			DeadCount:  stats.DeadCount,
			LagSeconds: stats.LagSeconds,
		}
	}))
}

// Flush delivers pending outbox messages when events are dispatched in this
// process. One-shot commands call it so personal events are fanned out
// before the process exits. With RabbitMQ the worker does the delivery.
func (c *Container) Flush(ctx context.Context) error {
	if c.InProcessEventBus == nil || c.OutboxProcessor == nil {
		return nil
	}
	for range maxFlushRounds {
		pending, err := c.OutboxRepo.GetUnpublished(ctx, 1)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return nil
		}
		if err := c.OutboxProcessor.ProcessOnce(ctx); err != nil {
			return err
		}
	}
	return errFlushIncomplete
}

const maxFlushRounds = 10

var errFlushIncomplete = errors.New("outbox not drained; remaining messages will be retried")

// Close cleans up all resources.
func (c *Container) Close() {
	if c.ExpirySweeper != nil {
		c.ExpirySweeper.Stop()
	}

	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBDriver)
		}
	}
}
