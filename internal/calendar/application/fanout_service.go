// Package application fans scheduled occurrences out into participants'
// personal calendars.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/huddle/internal/calendar/domain"
	meetingDomain "github.com/felixgeelhaar/huddle/internal/meetings/domain"
	"github.com/felixgeelhaar/huddle/pkg/observability"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

// Metric names recorded by the fan-out.
const (
	MetricEventsCreated  = "fanout_events_created_total"
	MetricEventsRemoved  = "fanout_events_removed_total"
	MetricMirrorFailures = "fanout_mirror_failures_total"
)

// Occurrence is one dated instance to copy into every participant's calendar.
type Occurrence struct {
	Date      string
	StartTime string
	EndTime   string
	Location  string
}

// FanoutRequest describes one schedule's fan-out.
type FanoutRequest struct {
	MeetingID      uuid.UUID
	ScheduleID     uuid.UUID
	Source         domain.Source
	Title          string
	ParticipantIDs []uuid.UUID
	Occurrences    []Occurrence
}

// BreakerConfig tunes the circuit breaker around the external mirror.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultBreakerConfig returns the breaker settings used when none are given.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// FanoutService writes personal events to the local store and, when a
// mirror is configured, to an external calendar. The local store is the
// source of truth; mirror failures are logged and counted only.
type FanoutService struct {
	repo    domain.Repository
	mirror  Mirror
	breaker *gobreaker.CircuitBreaker[int]
	metrics observability.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewFanoutService creates a FanoutService. mirror may be nil.
func NewFanoutService(repo domain.Repository, mirror Mirror, breaker BreakerConfig, metrics observability.Metrics, logger *slog.Logger) *FanoutService {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if breaker.FailureThreshold == 0 {
		breaker = DefaultBreakerConfig()
	}

	s := &FanoutService{
		repo:    repo,
		mirror:  mirror,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
	if mirror != nil {
		s.breaker = gobreaker.NewCircuitBreaker[int](gobreaker.Settings{
			Name:        mirror.Name(),
			MaxRequests: breaker.MaxRequests,
			Interval:    breaker.Interval,
			Timeout:     breaker.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breaker.FailureThreshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Info("calendar mirror breaker state changed",
					"mirror", name,
					"from", from.String(),
					"to", to.String(),
				)
			},
		})
	}
	return s
}

// CreatePersonalEvents creates one personal event per participant and
// occurrence. Events that already exist are left alone, so replaying a
// request is harmless. It returns how many events were new.
func (s *FanoutService) CreatePersonalEvents(ctx context.Context, req FanoutRequest) (int, error) {
	now := s.now()
	events := make([]domain.PersonalEvent, 0, len(req.ParticipantIDs)*len(req.Occurrences))
	for _, occ := range req.Occurrences {
		for _, userID := range req.ParticipantIDs {
			event, err := domain.NewPersonalEvent(userID, req.MeetingID, req.ScheduleID, req.Source,
				req.Title, occ.Date, occ.StartTime, occ.EndTime, occ.Location, now)
			if err != nil {
				return 0, fmt.Errorf("build personal event: %w", err)
			}
			events = append(events, event)
		}
	}

	created, err := s.repo.SaveBatch(ctx, events)
	if err != nil {
		return 0, err
	}
	s.metrics.Counter(MetricEventsCreated, int64(created), observability.T("source", string(req.Source)))
	s.logger.Debug("personal events created",
		"meeting_id", req.MeetingID,
		"schedule_id", req.ScheduleID,
		"source", req.Source,
		"created", created,
	)

	if len(events) > 0 {
		s.mirrorCall("publish", func() (int, error) {
			return len(events), s.mirror.Publish(ctx, events)
		})
	}
	return created, nil
}

// RemovePersonalEvents deletes every personal event a meeting's schedule
// of the given kind produced. Removing twice is a no-op.
func (s *FanoutService) RemovePersonalEvents(ctx context.Context, meetingID uuid.UUID, source meetingDomain.ScheduleSource) (int, error) {
	tag := domain.Source(source)
	if !tag.IsValid() {
		return 0, domain.ErrInvalidSource
	}

	removed, err := s.repo.DeleteByTag(ctx, meetingID, tag)
	if err != nil {
		return 0, err
	}
	s.metrics.Counter(MetricEventsRemoved, int64(removed), observability.T("source", string(tag)))
	s.logger.Debug("personal events removed", "meeting_id", meetingID, "source", tag, "removed", removed)

	s.mirrorCall("retract", func() (int, error) {
		return s.mirror.Retract(ctx, meetingID, tag)
	})
	return removed, nil
}

func (s *FanoutService) mirrorCall(operation string, fn func() (int, error)) {
	if s.mirror == nil {
		return
	}
	n, err := s.breaker.Execute(fn)
	if err == nil {
		s.logger.Debug("calendar mirror updated", "mirror", s.mirror.Name(), "operation", operation, "events", n)
		return
	}

	s.metrics.Counter(MetricMirrorFailures, 1,
		observability.T("mirror", s.mirror.Name()),
		observability.T("operation", operation),
	)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		s.logger.Warn("calendar mirror unavailable, skipping", "mirror", s.mirror.Name(), "operation", operation)
		return
	}
	s.logger.Error("calendar mirror failed", "mirror", s.mirror.Name(), "operation", operation, "error", err)
}
