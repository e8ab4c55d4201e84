package queries

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/huddle/internal/calendar/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
	domain.Repository
}

func (m *mockRepo) ListForUser(ctx context.Context, userID uuid.UUID, from, to string) ([]domain.PersonalEvent, error) {
	args := m.Called(ctx, userID, from, to)
	return args.Get(0).([]domain.PersonalEvent), args.Error(1)
}

func TestListPersonalEvents(t *testing.T) {
	repo := &mockRepo{}
	handler := NewListPersonalEventsHandler(repo)
	userID := uuid.New()
	events := []domain.PersonalEvent{{UserID: userID, Date: "2026-10-19"}}

	repo.On("ListForUser", mock.Anything, userID, "2026-10-01", "2026-10-31").Return(events, nil)

	got, err := handler.Handle(context.Background(), ListPersonalEventsQuery{UserID: userID, From: "2026-10-01", To: "2026-10-31"})
	require.NoError(t, err)
	assert.Equal(t, events, got)
}

func TestListPersonalEvents_InvalidRange(t *testing.T) {
	handler := NewListPersonalEventsHandler(&mockRepo{})
	tests := []ListPersonalEventsQuery{
		{From: "October"},
		{To: "2026-13-01"},
		{From: "2026-11-01", To: "2026-10-01"},
	}
	for _, query := range tests {
		_, err := handler.Handle(context.Background(), query)
		assert.ErrorIs(t, err, domain.ErrInvalidTime)
	}
}
