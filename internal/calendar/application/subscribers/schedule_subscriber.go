// Package subscribers reacts to meeting schedule events on the event bus.
package subscribers

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/huddle/internal/calendar/application"
	"github.com/felixgeelhaar/huddle/internal/calendar/domain"
	meetingDomain "github.com/felixgeelhaar/huddle/internal/meetings/domain"
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// ScheduleLookup reports which schedule of a kind a meeting currently has.
type ScheduleLookup interface {
	CurrentScheduleID(ctx context.Context, meetingID uuid.UUID, source domain.Source) (uuid.UUID, bool, error)
}

// Fanout is the part of the fan-out service the subscriber drives.
type Fanout interface {
	CreatePersonalEvents(ctx context.Context, req application.FanoutRequest) (int, error)
	RemovePersonalEvents(ctx context.Context, meetingID uuid.UUID, source meetingDomain.ScheduleSource) (int, error)
}

// ScheduleSubscriber turns committed and removed schedules into personal
// events. Events for a schedule that has since been replaced or removed
// are skipped, so late or repeated deliveries cannot resurrect them.
type ScheduleSubscriber struct {
	fanout  Fanout
	lookup  ScheduleLookup
	logger  *slog.Logger
	enabled bool
}

// NewScheduleSubscriber creates a new schedule subscriber.
func NewScheduleSubscriber(fanout Fanout, lookup ScheduleLookup, logger *slog.Logger) *ScheduleSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScheduleSubscriber{
		fanout:  fanout,
		lookup:  lookup,
		logger:  logger,
		enabled: true,
	}
}

// SetEnabled enables or disables the subscriber.
func (s *ScheduleSubscriber) SetEnabled(enabled bool) {
	s.enabled = enabled
}

// EventTypes returns the event types this subscriber handles.
func (s *ScheduleSubscriber) EventTypes() []string {
	return []string{
		meetingDomain.RoutingKeySuggestedScheduleCommitted,
		meetingDomain.RoutingKeySuggestedScheduleRemoved,
		meetingDomain.RoutingKeyRecurringScheduleSet,
		meetingDomain.RoutingKeyRecurringScheduleRemoved,
	}
}

// schedulePayload is the shared shape of the committed and set events.
type schedulePayload struct {
	MeetingID      uuid.UUID                  `json:"meeting_id"`
	ScheduleID     uuid.UUID                  `json:"schedule_id"`
	Title          string                     `json:"title"`
	ParticipantIDs []uuid.UUID                `json:"participant_ids"`
	Occurrences    []meetingDomain.Occurrence `json:"occurrences"`
}

type removedPayload struct {
	MeetingID  uuid.UUID `json:"meeting_id"`
	ScheduleID uuid.UUID `json:"schedule_id"`
}

// Handle processes a schedule event.
func (s *ScheduleSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	if !s.enabled {
		s.logger.Debug("schedule subscriber disabled, skipping event", "routing_key", event.RoutingKey)
		return nil
	}

	switch event.RoutingKey {
	case meetingDomain.RoutingKeySuggestedScheduleCommitted:
		return s.handleCreated(ctx, event, domain.SourceSuggested)
	case meetingDomain.RoutingKeyRecurringScheduleSet:
		return s.handleCreated(ctx, event, domain.SourceRecurring)
	case meetingDomain.RoutingKeySuggestedScheduleRemoved:
		return s.handleRemoved(ctx, event, domain.SourceSuggested)
	case meetingDomain.RoutingKeyRecurringScheduleRemoved:
		return s.handleRemoved(ctx, event, domain.SourceRecurring)
	default:
		s.logger.Warn("unknown event type", "routing_key", event.RoutingKey)
		return nil
	}
}

func (s *ScheduleSubscriber) handleCreated(ctx context.Context, event *eventbus.ConsumedEvent, source domain.Source) error {
	var payload schedulePayload
	if err := event.Decode(&payload); err != nil {
		s.logger.Error("failed to decode schedule payload", "routing_key", event.RoutingKey, "error", err)
		return nil // a malformed event will never succeed
	}

	current, ok, err := s.lookup.CurrentScheduleID(ctx, payload.MeetingID, source)
	if err != nil {
		return err
	}
	if !ok || current != payload.ScheduleID {
		s.logger.Debug("schedule no longer current, skipping fan-out",
			"meeting_id", payload.MeetingID,
			"schedule_id", payload.ScheduleID,
		)
		return nil
	}

	occurrences := make([]application.Occurrence, 0, len(payload.Occurrences))
	for _, occ := range payload.Occurrences {
		occurrences = append(occurrences, application.Occurrence{
			Date:      occ.Date,
			StartTime: occ.StartTime,
			EndTime:   occ.EndTime,
			Location:  occ.Location,
		})
	}

	created, err := s.fanout.CreatePersonalEvents(ctx, application.FanoutRequest{
		MeetingID:      payload.MeetingID,
		ScheduleID:     payload.ScheduleID,
		Source:         source,
		Title:          payload.Title,
		ParticipantIDs: payload.ParticipantIDs,
		Occurrences:    occurrences,
	})
	if err != nil {
		s.logger.Error("failed to fan out schedule",
			"meeting_id", payload.MeetingID,
			"schedule_id", payload.ScheduleID,
			"error", err,
		)
		return err
	}

	s.logger.Info("schedule fanned out",
		"meeting_id", payload.MeetingID,
		"schedule_id", payload.ScheduleID,
		"source", source,
		"created", created,
	)
	return nil
}

// handleRemoved repeats the retraction the removing command already did,
// unless a newer schedule of the same kind now owns the tag.
func (s *ScheduleSubscriber) handleRemoved(ctx context.Context, event *eventbus.ConsumedEvent, source domain.Source) error {
	var payload removedPayload
	if err := event.Decode(&payload); err != nil {
		s.logger.Error("failed to decode removal payload", "routing_key", event.RoutingKey, "error", err)
		return nil
	}

	_, ok, err := s.lookup.CurrentScheduleID(ctx, payload.MeetingID, source)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	removed, err := s.fanout.RemovePersonalEvents(ctx, payload.MeetingID, meetingDomain.ScheduleSource(source))
	if err != nil {
		return err
	}
	if removed > 0 {
		s.logger.Info("removed leftover personal events",
			"meeting_id", payload.MeetingID,
			"source", source,
			"removed", removed,
		)
	}
	return nil
}
