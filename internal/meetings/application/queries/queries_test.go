package queries

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/huddle/internal/meetings/application/services"
	"github.com/felixgeelhaar/huddle/internal/meetings/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMeetingRepo struct {
	mock.Mock
}

func (m *mockMeetingRepo) Save(ctx context.Context, meeting *domain.Meeting) error {
	return m.Called(ctx, meeting).Error(0)
}

func (m *mockMeetingRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Meeting, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Meeting), args.Error(1)
}

func (m *mockMeetingRepo) FindByParticipant(ctx context.Context, userID uuid.UUID) ([]*domain.Meeting, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*domain.Meeting), args.Error(1)
}

func (m *mockMeetingRepo) FindOpen(ctx context.Context, limit int) ([]*domain.Meeting, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*domain.Meeting), args.Error(1)
}

func (m *mockMeetingRepo) ReplaceAvailability(ctx context.Context, meetingID, userID uuid.UUID, slots []domain.SlotID) error {
	return m.Called(ctx, meetingID, userID, slots).Error(0)
}

// twoMemberMeeting returns a meeting with an owner and one approved member.
func twoMemberMeeting(t *testing.T) (*domain.Meeting, uuid.UUID, uuid.UUID) {
	t.Helper()
	ownerID, memberID := uuid.New(), uuid.New()
	meeting, err := domain.NewMeeting(ownerID, "Choir", "Tuesday practice", "Hall", 10)
	require.NoError(t, err)
	require.NoError(t, meeting.RequestToJoin(memberID, time.Now()))
	require.NoError(t, meeting.ApproveJoinRequest(ownerID, memberID, time.Now()))
	return meeting, ownerID, memberID
}

func TestGetMeetingHandler_Handle(t *testing.T) {
	ctx := context.Background()
	meeting, ownerID, _ := twoMemberMeeting(t)
	_, err := meeting.SetRecurringSchedule(ownerID, domain.RecurringSchedule{
		Frequency: domain.FrequencyWeekly, DayOfWeek: time.Tuesday,
		StartTime: "19:00", EndTime: "21:00", From: "2026-10-01", Until: "2026-12-31",
	}, nil)
	require.NoError(t, err)

	repo := new(mockMeetingRepo)
	repo.On("FindByID", ctx, meeting.ID()).Return(meeting, nil)

	dto, err := NewGetMeetingHandler(repo).Handle(ctx, GetMeetingQuery{MeetingID: meeting.ID()})

	require.NoError(t, err)
	assert.Equal(t, "Choir", dto.Title)
	assert.Equal(t, 2, dto.TotalParticipants)
	require.Len(t, dto.Participants, 2)
	assert.Equal(t, "owner", dto.Participants[0].Role)
	assert.Nil(t, dto.SuggestedSchedule)
	require.NotNil(t, dto.RecurringSchedule)
	assert.Equal(t, "weekly on Tuesday 19:00-21:00", dto.RecurringSchedule.Description)
}

func TestListMeetingsHandler_Handle(t *testing.T) {
	ctx := context.Background()
	meeting, _, memberID := twoMemberMeeting(t)
	repo := new(mockMeetingRepo)
	repo.On("FindByParticipant", ctx, memberID).Return([]*domain.Meeting{meeting}, nil)
	repo.On("FindOpen", ctx, 20).Return([]*domain.Meeting{}, nil)
	handler := NewListMeetingsHandler(repo)

	mine, err := handler.Handle(ctx, ListMeetingsQuery{UserID: memberID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, meeting.ID(), mine[0].ID)

	open, err := handler.Handle(ctx, ListMeetingsQuery{OpenOnly: true, Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, open)
	repo.AssertExpectations(t)
}

func TestGetSuggestionsHandler_Handle(t *testing.T) {
	ctx := context.Background()
	grid := domain.DefaultSlotGrid()
	calculator := services.NewOptimalTimeCalculator(grid)

	t.Run("ranks shared slots", func(t *testing.T) {
		meeting, ownerID, memberID := twoMemberMeeting(t)
		shared := []domain.SlotID{{Day: 1, Index: 2}, {Day: 1, Index: 3}}
		require.NoError(t, meeting.SetAvailability(grid, ownerID, append(shared, domain.SlotID{Day: 4, Index: 0})))
		require.NoError(t, meeting.SetAvailability(grid, memberID, shared))
		repo := new(mockMeetingRepo)
		repo.On("FindByID", ctx, meeting.ID()).Return(meeting, nil)

		dto, err := NewGetSuggestionsHandler(repo, calculator).Handle(ctx, GetSuggestionsQuery{MeetingID: meeting.ID(), UserID: memberID})

		require.NoError(t, err)
		assert.False(t, dto.HasSchedule)
		require.Len(t, dto.Suggestions, 2)
		assert.True(t, dto.Suggestions[0].IsConsecutive)
		assert.Equal(t, "1-10-00", dto.Suggestions[0].SlotKey)
		assert.Equal(t, 50, dto.Suggestions[1].AvailabilityRatePercent)
	})

	t.Run("limit trims the tail", func(t *testing.T) {
		meeting, ownerID, _ := twoMemberMeeting(t)
		require.NoError(t, meeting.SetAvailability(grid, ownerID, []domain.SlotID{{Day: 0, Index: 0}, {Day: 2, Index: 0}}))
		repo := new(mockMeetingRepo)
		repo.On("FindByID", ctx, meeting.ID()).Return(meeting, nil)

		dto, err := NewGetSuggestionsHandler(repo, calculator).Handle(ctx, GetSuggestionsQuery{MeetingID: meeting.ID(), UserID: ownerID, Limit: 1})

		require.NoError(t, err)
		assert.Len(t, dto.Suggestions, 1)
	})

	t.Run("suppressed once scheduled", func(t *testing.T) {
		meeting, ownerID, _ := twoMemberMeeting(t)
		require.NoError(t, meeting.SetAvailability(grid, ownerID, []domain.SlotID{{Day: 0, Index: 0}}))
		require.NoError(t, meeting.CommitSuggestedSchedule(ownerID, domain.SuggestedSchedule{
			Date: "2026-10-19", StartTime: "09:00", EndTime: "09:30",
		}))
		repo := new(mockMeetingRepo)
		repo.On("FindByID", ctx, meeting.ID()).Return(meeting, nil)

		dto, err := NewGetSuggestionsHandler(repo, calculator).Handle(ctx, GetSuggestionsQuery{MeetingID: meeting.ID(), UserID: ownerID})

		require.NoError(t, err)
		assert.True(t, dto.HasSchedule)
		assert.NotNil(t, dto.Suggestions)
		assert.Empty(t, dto.Suggestions)
	})

	t.Run("outsiders are refused", func(t *testing.T) {
		meeting, _, _ := twoMemberMeeting(t)
		repo := new(mockMeetingRepo)
		repo.On("FindByID", ctx, meeting.ID()).Return(meeting, nil)

		_, err := NewGetSuggestionsHandler(repo, calculator).Handle(ctx, GetSuggestionsQuery{MeetingID: meeting.ID(), UserID: uuid.New()})

		assert.ErrorIs(t, err, domain.ErrNotParticipant)
	})
}

func TestGetCoordinationHandler_Handle(t *testing.T) {
	ctx := context.Background()
	grid := domain.DefaultSlotGrid()
	meeting, ownerID, memberID := twoMemberMeeting(t)
	require.NoError(t, meeting.SetAvailability(grid, memberID, []domain.SlotID{{Day: 3, Index: 1}, {Day: 0, Index: 0}}))
	repo := new(mockMeetingRepo)
	repo.On("FindByID", ctx, meeting.ID()).Return(meeting, nil)
	handler := NewGetCoordinationHandler(repo, grid)

	dto, err := handler.Handle(ctx, GetCoordinationQuery{MeetingID: meeting.ID(), UserID: memberID})
	require.NoError(t, err)
	assert.Equal(t, 50, dto.CoordinationRate)
	assert.Equal(t, []string{"0-09-00", "3-09-30"}, dto.MySlotKeys)
	require.Len(t, dto.Cells, 2)
	assert.Equal(t, services.HeatLow, dto.Cells[0].Level)

	dto, err = handler.Handle(ctx, GetCoordinationQuery{MeetingID: meeting.ID(), UserID: ownerID})
	require.NoError(t, err)
	assert.Empty(t, dto.MySlotKeys)
}
