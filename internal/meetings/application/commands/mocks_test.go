package commands

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/huddle/internal/meetings/domain"
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type txKey struct{}

// mockMeetingRepo is a mock implementation of domain.Repository.
type mockMeetingRepo struct {
	mock.Mock
}

func (m *mockMeetingRepo) Save(ctx context.Context, meeting *domain.Meeting) error {
	args := m.Called(ctx, meeting)
	return args.Error(0)
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
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Meeting), args.Error(1)
}

func (m *mockMeetingRepo) FindOpen(ctx context.Context, limit int) ([]*domain.Meeting, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Meeting), args.Error(1)
}

func (m *mockMeetingRepo) ReplaceAvailability(ctx context.Context, meetingID, userID uuid.UUID, slots []domain.SlotID) error {
	args := m.Called(ctx, meetingID, userID, slots)
	return args.Error(0)
}

// mockOutboxRepo is a mock implementation of outbox.Repository.
type mockOutboxRepo struct {
	mock.Mock
}

func (m *mockOutboxRepo) Save(ctx context.Context, msg *outbox.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockOutboxRepo) SaveBatch(ctx context.Context, msgs []*outbox.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockOutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *mockOutboxRepo) MarkPublished(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockOutboxRepo) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	args := m.Called(ctx, id, errMsg, nextRetryAt)
	return args.Error(0)
}

func (m *mockOutboxRepo) MarkDead(ctx context.Context, id int64, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *mockOutboxRepo) GetFailed(ctx context.Context, maxRetries, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, maxRetries, limit)
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *mockOutboxRepo) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	args := m.Called(ctx, olderThanDays)
	return args.Get(0).(int64), args.Error(1)
}

// mockUnitOfWork is a mock implementation of UnitOfWork.
type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// mockRetractor is a mock implementation of PersonalEventRetractor.
type mockRetractor struct {
	mock.Mock
}

func (m *mockRetractor) RemovePersonalEvents(ctx context.Context, meetingID uuid.UUID, source domain.ScheduleSource) (int, error) {
	args := m.Called(ctx, meetingID, source)
	return args.Int(0), args.Error(1)
}

// fixture bundles the mocks every handler test needs.
type fixture struct {
	ctx       context.Context
	txCtx     context.Context
	repo      *mockMeetingRepo
	outbox    *mockOutboxRepo
	uow       *mockUnitOfWork
	retractor *mockRetractor
}

func newFixture() *fixture {
	ctx := context.Background()
	return &fixture{
		ctx:       ctx,
		txCtx:     context.WithValue(ctx, txKey{}, "transaction"),
		repo:      new(mockMeetingRepo),
		outbox:    new(mockOutboxRepo),
		uow:       new(mockUnitOfWork),
		retractor: new(mockRetractor),
	}
}

// expectCommit wires a successful transaction that saves the meeting.
func (f *fixture) expectCommit() {
	f.uow.On("Begin", f.ctx).Return(f.txCtx, nil)
	f.uow.On("Commit", f.txCtx).Return(nil)
	f.repo.On("Save", f.txCtx, mock.AnythingOfType("*domain.Meeting")).Return(nil)
	f.outbox.On("SaveBatch", f.txCtx, mock.AnythingOfType("[]*outbox.Message")).Return(nil)
}

func (f *fixture) expectRollback() {
	f.uow.On("Begin", f.ctx).Return(f.txCtx, nil)
	f.uow.On("Rollback", f.txCtx).Return(nil)
}

func (f *fixture) assertExpectations(t mock.TestingT) {
	f.uow.AssertExpectations(t)
	f.repo.AssertExpectations(t)
	f.outbox.AssertExpectations(t)
	f.retractor.AssertExpectations(t)
}

func newMeeting(t *testing.T, ownerID uuid.UUID) *domain.Meeting {
	t.Helper()
	meeting, err := domain.NewMeeting(ownerID, "Book club", "", "Library", 6)
	require.NoError(t, err)
	meeting.ClearDomainEvents()
	return meeting
}

// routingKeys decodes the routing keys of the messages passed to SaveBatch.
func routingKeys(outboxRepo *mockOutboxRepo) []string {
	var keys []string
	for _, call := range outboxRepo.Calls {
		if call.Method != "SaveBatch" {
			continue
		}
		for _, msg := range call.Arguments.Get(1).([]*outbox.Message) {
			keys = append(keys, msg.RoutingKey)
		}
	}
	return keys
}
