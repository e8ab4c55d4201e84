package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixgeelhaar/huddle/internal/attendance/application/commands"
	"github.com/felixgeelhaar/huddle/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockFinder struct {
	mock.Mock
}

func (m *mockFinder) FindExpired(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type mockExpirer struct {
	mock.Mock
}

func (m *mockExpirer) Handle(ctx context.Context, cmd commands.ExpireAttendanceCommand) (*commands.EndAttendanceResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commands.EndAttendanceResult), args.Error(1)
}

func TestExpirySweeper_Sweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 15, 18, 5, 0, 0, time.UTC)
	first, raced, broken := uuid.New(), uuid.New(), uuid.New()

	finder := new(mockFinder)
	finder.On("FindExpired", ctx, now, 100).Return([]uuid.UUID{first, raced, broken}, nil)
	expirer := new(mockExpirer)
	expirer.On("Handle", ctx, commands.ExpireAttendanceCommand{MeetingID: first}).Return(&commands.EndAttendanceResult{Ended: true}, nil)
	expirer.On("Handle", ctx, commands.ExpireAttendanceCommand{MeetingID: raced}).Return(&commands.EndAttendanceResult{}, nil)
	expirer.On("Handle", ctx, commands.ExpireAttendanceCommand{MeetingID: broken}).Return(nil, errors.New("db down"))

	sweeper := NewExpirySweeper(finder, expirer, DefaultExpirySweeperConfig(), nil)
	sweeper.now = func() time.Time { return now }
	metrics := observability.NewInMemoryMetrics()
	sweeper.SetMetrics(metrics)

	assert.Equal(t, 1, sweeper.Sweep(ctx))
	expirer.AssertExpectations(t)
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricSweeperExpired))
}

func TestExpirySweeper_FinderError(t *testing.T) {
	ctx := context.Background()
	finder := new(mockFinder)
	finder.On("FindExpired", ctx, mock.Anything, 100).Return(nil, errors.New("db down"))
	expirer := new(mockExpirer)

	sweeper := NewExpirySweeper(finder, expirer, ExpirySweeperConfig{}, nil)

	assert.Zero(t, sweeper.Sweep(ctx))
	expirer.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestExpirySweeper_RunStopsOnCancel(t *testing.T) {
	var sweeps atomic.Int32
	finder := new(mockFinder)
	finder.On("FindExpired", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { sweeps.Add(1) }).
		Return([]uuid.UUID{}, nil)
	sweeper := NewExpirySweeper(finder, new(mockExpirer), ExpirySweeperConfig{Interval: 5 * time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	assert.Eventually(t, func() bool { return sweeps.Load() > 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
	assert.False(t, sweeper.IsRunning())
}
