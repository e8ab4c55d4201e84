package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/huddle/internal/attendance/application/services"
	"github.com/felixgeelhaar/huddle/internal/attendance/domain"
	sharedApplication "github.com/felixgeelhaar/huddle/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/huddle/internal/shared/domain"
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/lock"
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/huddle/pkg/observability"
	"github.com/google/uuid"
)

// Metric names recorded by attendance commands.
const (
	MetricSessionsFinalized = "attendance_sessions_finalized_total"
	MetricSubmissions       = "attendance_submissions_total"
)

// Executor runs register mutations one meeting at a time: it takes the
// meeting's lock, loads the register and roster inside a unit of work,
// applies the change and writes the register together with its events.
type Executor struct {
	repo       domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	rosters    services.RosterProvider
	locker     lock.Locker
	metrics    observability.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// NewExecutor creates an Executor. Nil metrics and logger fall back to
// no-op and default implementations.
func NewExecutor(
	repo domain.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	rosters services.RosterProvider,
	locker lock.Locker,
	metrics observability.Metrics,
	logger *slog.Logger,
) *Executor {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		repo:       repo,
		outboxRepo: outboxRepo,
		uow:        uow,
		rosters:    rosters,
		locker:     locker,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// mutation changes a register. It may return a domain error after changing
// the register; those changes are still committed.
type mutation func(register *domain.Register, roster services.Roster, now time.Time) error

func lockKey(meetingID uuid.UUID) string {
	return "attendance:" + meetingID.String()
}

func (e *Executor) run(ctx context.Context, meetingID, actor uuid.UUID, fn mutation) error {
	release, err := e.locker.Lock(ctx, lockKey(meetingID))
	if err != nil {
		return fmt.Errorf("lock attendance register: %w", err)
	}
	defer release()

	var (
		opErr     error
		published []sharedDomain.DomainEvent
	)
	err = sharedApplication.WithUnitOfWork(ctx, e.uow, func(txCtx context.Context) error {
		roster, err := e.rosters.Roster(txCtx, meetingID)
		if err != nil {
			return err
		}
		register, err := e.repo.Find(txCtx, meetingID)
		if err != nil {
			return err
		}

		opErr = fn(register, roster, e.now())
		events := register.DomainEvents()
		if len(events) == 0 {
			return opErr
		}

		if err := e.repo.Save(txCtx, register); err != nil {
			return err
		}
		sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(txCtx, actor))
		msgs, err := outbox.NewMessages(events)
		if err != nil {
			return err
		}
		if err := e.outboxRepo.SaveBatch(txCtx, msgs); err != nil {
			return err
		}
		published = events
		register.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return err
	}
	e.count(published)
	return opErr
}

func (e *Executor) count(events []sharedDomain.DomainEvent) {
	for _, event := range events {
		switch event.RoutingKey() {
		case domain.RoutingKeySessionFinalized:
			e.metrics.Counter(MetricSessionsFinalized, 1)
		case domain.RoutingKeyAttendeeCheckedIn:
			e.metrics.Counter(MetricSubmissions, 1, observability.T("result", "accepted"))
		}
	}
}
