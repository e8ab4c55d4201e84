package queries

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/huddle/internal/attendance/application/services"
	"github.com/felixgeelhaar/huddle/internal/attendance/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRegisterRepo struct {
	mock.Mock
}

func (m *mockRegisterRepo) Find(ctx context.Context, meetingID uuid.UUID) (*domain.Register, error) {
	args := m.Called(ctx, meetingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Register), args.Error(1)
}

func (m *mockRegisterRepo) Save(ctx context.Context, register *domain.Register) error {
	return m.Called(ctx, register).Error(0)
}

func (m *mockRegisterRepo) FindExpired(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type mockRosters struct {
	mock.Mock
}

func (m *mockRosters) Roster(ctx context.Context, meetingID uuid.UUID) (services.Roster, error) {
	args := m.Called(ctx, meetingID)
	return args.Get(0).(services.Roster), args.Error(1)
}

var now = time.Date(2026, 10, 15, 18, 1, 0, 0, time.UTC)

func record(meetingID uuid.UUID, date string, roster []uuid.UUID, attended ...uuid.UUID) domain.HistoryRecord {
	day, _ := time.Parse(domain.DateLayout, date)
	return domain.NewHistoryRecord(meetingID, domain.SessionFinalized{
		Date:        date,
		StartedAt:   day.Add(18 * time.Hour),
		FinalizedAt: day.Add(18*time.Hour + 3*time.Minute),
		Attendees:   attended,
	}, roster)
}

type fixture struct {
	meetingID uuid.UUID
	roster    services.Roster
	repo      *mockRegisterRepo
	rosters   *mockRosters
}

func newFixture(members int) *fixture {
	f := &fixture{meetingID: uuid.New(), repo: &mockRegisterRepo{}, rosters: &mockRosters{}}
	f.roster.OwnerID = uuid.New()
	f.roster.Members = []uuid.UUID{f.roster.OwnerID}
	for i := 1; i < members; i++ {
		f.roster.Members = append(f.roster.Members, uuid.New())
	}
	f.rosters.On("Roster", mock.Anything, f.meetingID).Return(f.roster, nil)
	return f
}

func (f *fixture) withRegister(session *domain.SessionState, records ...domain.HistoryRecord) {
	f.repo.On("Find", mock.Anything, f.meetingID).
		Return(domain.RehydrateRegister(f.meetingID, session, records, 1, now), nil)
}

func activeSession(attendees ...uuid.UUID) *domain.SessionState {
	started := now.Add(-time.Minute)
	return &domain.SessionState{
		Status:    domain.SessionActive,
		Date:      "2026-10-15",
		Code:      "K7QP2M",
		StartedAt: started,
		EndsAt:    started.Add(domain.DefaultSessionTTL),
		Attendees: attendees,
	}
}

func TestGetSessionStatus_Active(t *testing.T) {
	f := newFixture(3)
	member := f.roster.Members[1]
	f.withRegister(activeSession(member))
	handler := NewGetSessionStatusHandler(f.repo, f.rosters, time.UTC)
	handler.now = func() time.Time { return now }

	owner, err := handler.Handle(context.Background(), GetSessionStatusQuery{MeetingID: f.meetingID, UserID: f.roster.OwnerID})
	require.NoError(t, err)
	assert.True(t, owner.Active)
	assert.Equal(t, "K7QP2M", owner.Code)
	assert.Equal(t, 120, owner.RemainingSeconds)
	assert.False(t, owner.CheckedIn)
	assert.Equal(t, []uuid.UUID{member}, owner.Attendees)

	status, err := handler.Handle(context.Background(), GetSessionStatusQuery{MeetingID: f.meetingID, UserID: member})
	require.NoError(t, err)
	assert.Empty(t, status.Code, "only the owner sees the code")
	assert.True(t, status.CheckedIn)
}

func TestGetSessionStatus_ExpiredReadsInactive(t *testing.T) {
	f := newFixture(2)
	f.withRegister(activeSession())
	handler := NewGetSessionStatusHandler(f.repo, f.rosters, time.UTC)
	handler.now = func() time.Time { return now.Add(5 * time.Minute) }

	status, err := handler.Handle(context.Background(), GetSessionStatusQuery{MeetingID: f.meetingID, UserID: f.roster.OwnerID})
	require.NoError(t, err)
	assert.False(t, status.Active)
	assert.True(t, status.CompletedToday)
	assert.Empty(t, status.Code)
}

func TestGetSessionStatus_CompletedToday(t *testing.T) {
	f := newFixture(2)
	f.withRegister(nil, record(f.meetingID, "2026-10-15", f.roster.Members, f.roster.OwnerID))
	handler := NewGetSessionStatusHandler(f.repo, f.rosters, time.UTC)
	handler.now = func() time.Time { return now }

	status, err := handler.Handle(context.Background(), GetSessionStatusQuery{MeetingID: f.meetingID, UserID: f.roster.Members[1]})
	require.NoError(t, err)
	assert.False(t, status.Active)
	assert.True(t, status.CompletedToday)
	assert.NotNil(t, status.Attendees)
}

func TestGetSessionStatus_NotParticipant(t *testing.T) {
	f := newFixture(2)
	handler := NewGetSessionStatusHandler(f.repo, f.rosters, time.UTC)

	_, err := handler.Handle(context.Background(), GetSessionStatusQuery{MeetingID: f.meetingID, UserID: uuid.New()})
	assert.ErrorIs(t, err, domain.ErrNotParticipant)
	f.repo.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
}

func TestHistoryHandler(t *testing.T) {
	f := newFixture(3)
	owner, a, b := f.roster.Members[0], f.roster.Members[1], f.roster.Members[2]
	f.withRegister(nil,
		record(f.meetingID, "2026-10-01", f.roster.Members, owner, a, b),
		record(f.meetingID, "2026-10-08", f.roster.Members, owner),
		record(f.meetingID, "2026-10-15", f.roster.Members, owner, a),
	)
	handler := NewHistoryHandler(f.repo, f.rosters)
	ctx := context.Background()

	t.Run("history newest first", func(t *testing.T) {
		history, err := handler.History(ctx, HistoryQuery{MeetingID: f.meetingID, UserID: a})
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, "2026-10-15", history[0].Date)
		assert.Equal(t, 67, history[0].RatePercent)
		assert.Equal(t, []uuid.UUID{owner, a}, history[0].AttendeeIDs)
		assert.Equal(t, "2026-10-01", history[2].Date)
	})

	t.Run("statistics", func(t *testing.T) {
		stats, err := handler.Statistics(ctx, HistoryQuery{MeetingID: f.meetingID, UserID: owner})
		require.NoError(t, err)
		assert.Equal(t, domain.Statistics{
			TotalSessions:      3,
			AverageRatePercent: 67,
			BestRatePercent:    100,
			TotalAttendances:   6,
			LastSessionDate:    "2026-10-15",
		}, *stats)
	})

	t.Run("user history defaults to caller", func(t *testing.T) {
		history, err := handler.UserHistory(ctx, UserHistoryQuery{MeetingID: f.meetingID, UserID: b})
		require.NoError(t, err)
		assert.Equal(t, b, history.MemberID)
		assert.Equal(t, 33, history.RatePercent)
		assert.Equal(t, []domain.UserAttendance{
			{Date: "2026-10-15", Attended: false},
			{Date: "2026-10-08", Attended: false},
			{Date: "2026-10-01", Attended: true},
		}, history.Dates)
	})

	t.Run("member rates", func(t *testing.T) {
		rates, err := handler.MemberRates(ctx, HistoryQuery{MeetingID: f.meetingID, UserID: owner})
		require.NoError(t, err)
		require.Len(t, rates, 3)
		assert.Equal(t, 100, rates[0].RatePercent)
		assert.Equal(t, 67, rates[1].RatePercent)
		assert.Equal(t, "2026-10-15", rates[1].LastAttendedDate)
		assert.Equal(t, 1, rates[2].AttendedCount)
	})

	t.Run("record by date", func(t *testing.T) {
		rec, err := handler.RecordByDate(ctx, RecordByDateQuery{MeetingID: f.meetingID, UserID: a, Date: "2026-10-08"})
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, 33, rec.RatePercent)

		missing, err := handler.RecordByDate(ctx, RecordByDateQuery{MeetingID: f.meetingID, UserID: a, Date: "2026-10-09"})
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("outsiders are rejected", func(t *testing.T) {
		_, err := handler.History(ctx, HistoryQuery{MeetingID: f.meetingID, UserID: uuid.New()})
		assert.ErrorIs(t, err, domain.ErrNotParticipant)
	})
}
