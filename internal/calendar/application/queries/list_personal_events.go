// Package queries reads personal calendars.
package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/huddle/internal/calendar/domain"
	"github.com/google/uuid"
)

// ListPersonalEventsQuery asks for a user's events between two dates,
// inclusive. Empty bounds are open.
type ListPersonalEventsQuery struct {
	UserID uuid.UUID
	From   string
	To     string
}

// ListPersonalEventsHandler handles the ListPersonalEventsQuery.
type ListPersonalEventsHandler struct {
	repo domain.Repository
}

// NewListPersonalEventsHandler creates a new ListPersonalEventsHandler.
func NewListPersonalEventsHandler(repo domain.Repository) *ListPersonalEventsHandler {
	return &ListPersonalEventsHandler{repo: repo}
}

// Handle executes the ListPersonalEventsQuery.
func (h *ListPersonalEventsHandler) Handle(ctx context.Context, query ListPersonalEventsQuery) ([]domain.PersonalEvent, error) {
	for _, bound := range []string{query.From, query.To} {
		if bound == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", bound); err != nil {
			return nil, fmt.Errorf("%w: date %q", domain.ErrInvalidTime, bound)
		}
	}
	if query.From != "" && query.To != "" && query.From > query.To {
		return nil, fmt.Errorf("%w: from %s is after to %s", domain.ErrInvalidTime, query.From, query.To)
	}
	return h.repo.ListForUser(ctx, query.UserID, query.From, query.To)
}
