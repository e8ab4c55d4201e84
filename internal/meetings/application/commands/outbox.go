package commands

import (
	"context"

	"github.com/felixgeelhaar/huddle/internal/meetings/domain"
	sharedApplication "github.com/felixgeelhaar/huddle/internal/shared/application"
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// recordEvents moves the meeting's pending events into the outbox within
// the caller's transaction.
func recordEvents(ctx context.Context, outboxRepo outbox.Repository, meeting *domain.Meeting, actor uuid.UUID) error {
	events := meeting.DomainEvents()
	if len(events) == 0 {
		return nil
	}
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(ctx, actor))

	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return err
	}
	if err := outboxRepo.SaveBatch(ctx, msgs); err != nil {
		return err
	}
	meeting.ClearDomainEvents()
	return nil
}

// saveMeeting persists the aggregate and its events together.
func saveMeeting(ctx context.Context, repo domain.Repository, outboxRepo outbox.Repository, meeting *domain.Meeting, actor uuid.UUID) error {
	if err := repo.Save(ctx, meeting); err != nil {
		return err
	}
	return recordEvents(ctx, outboxRepo, meeting, actor)
}
