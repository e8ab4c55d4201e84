package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/huddle/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	return m.Called(routingKey).Error(0)
}

func (m *mockPublisher) Close() error { return nil }

type processorFixture struct {
	repo      *SQLRepository
	publisher *mockPublisher
	processor *Processor
	metrics   *observability.InMemoryMetrics
	now       time.Time
}

func newProcessorFixture(t *testing.T, cfg ProcessorConfig) *processorFixture {
	t.Helper()
	repo, _ := newTestRepository(t)
	f := &processorFixture{
		repo:      repo,
		publisher: &mockPublisher{},
		metrics:   observability.NewInMemoryMetrics(),
		now:       time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	repo.now = clock
	f.processor = NewProcessor(repo, f.publisher, cfg, nil)
	f.processor.now = clock
	f.processor.SetMetrics(f.metrics)
	return f
}

func (f *processorFixture) enqueue(t *testing.T, code string) *Message {
	t.Helper()
	msg, err := NewMessage(newSessionStarted(uuid.New(), code))
	require.NoError(t, err)
	require.NoError(t, f.repo.Save(context.Background(), msg))
	return msg
}

func TestProcessorConfig_Backoff(t *testing.T) {
	cfg := ProcessorConfig{RetryBackoffBase: time.Second, RetryBackoffMax: 10 * time.Second}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second},
		{64, 10 * time.Second},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, cfg.backoff(tc.attempt), "attempt %d", tc.attempt)
	}

	assert.Equal(t, time.Second, ProcessorConfig{}.backoff(1), "zero config falls back to defaults")
}

func TestProcessorConfig_Exhausted(t *testing.T) {
	cfg := ProcessorConfig{MaxRetries: 3}
	assert.False(t, cfg.exhausted(0))
	assert.False(t, cfg.exhausted(1))
	assert.True(t, cfg.exhausted(2))
	assert.True(t, ProcessorConfig{}.exhausted(0), "no retries configured")
}

func TestProcessor_ProcessOnce_Delivers(t *testing.T) {
	ctx := context.Background()
	f := newProcessorFixture(t, DefaultProcessorConfig())
	f.enqueue(t, "AAAAAA")
	f.enqueue(t, "BBBBBB")
	f.publisher.On("Publish", "attendance.session.started").Return(nil).Twice()

	require.NoError(t, f.processor.ProcessOnce(ctx))

	pending, err := f.repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Equal(t, uint64(2), f.processor.GetStats().PublishedCount)
	assert.Equal(t, int64(2), f.metrics.GetCounter(observability.MetricOutboxPublished,
		observability.T("routing_key", "attendance.session.started")))
	f.publisher.AssertExpectations(t)
}

func TestProcessor_ProcessOnce_RetriesWithBackoff(t *testing.T) {
	ctx := context.Background()
	f := newProcessorFixture(t, ProcessorConfig{
		BatchSize:        10,
		MaxRetries:       3,
		RetryBackoffBase: time.Minute,
		RetryBackoffMax:  time.Hour,
	})
	msg := f.enqueue(t, "AAAAAA")
	f.publisher.On("Publish", mock.Anything).Return(errors.New("broker down"))

	require.NoError(t, f.processor.ProcessOnce(ctx))

	pending, err := f.repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "parked until the backoff elapses")

	f.now = f.now.Add(61 * time.Second)
	pending, err = f.repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, msg.ID, pending[0].ID)
	assert.Equal(t, 1, pending[0].RetryCount)

	stats := f.processor.GetStats()
	assert.Equal(t, uint64(1), stats.FailedCount)
	assert.Equal(t, "broker down", stats.LastError)
	require.NotNil(t, stats.LastErrorAt)
}

func TestProcessor_ProcessOnce_DeadLettersLastAttempt(t *testing.T) {
	ctx := context.Background()
	f := newProcessorFixture(t, ProcessorConfig{
		BatchSize:        10,
		MaxRetries:       2,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Second,
	})
	f.enqueue(t, "AAAAAA")
	f.publisher.On("Publish", mock.Anything).Return(errors.New("unroutable"))

	require.NoError(t, f.processor.ProcessOnce(ctx))
	f.now = f.now.Add(2 * time.Second)
	require.NoError(t, f.processor.ProcessOnce(ctx))
	f.now = f.now.Add(time.Hour)
	require.NoError(t, f.processor.ProcessOnce(ctx))

	f.publisher.AssertNumberOfCalls(t, "Publish", 2)
	stats := f.processor.GetStats()
	assert.Equal(t, uint64(1), stats.FailedCount)
	assert.Equal(t, uint64(1), stats.DeadCount)
	assert.Equal(t, int64(1), f.metrics.GetCounter(observability.MetricOutboxDead,
		observability.T("routing_key", "attendance.session.started")))
}

func TestProcessor_ProcessOnce_ReportsLag(t *testing.T) {
	ctx := context.Background()
	f := newProcessorFixture(t, DefaultProcessorConfig())
	msg := f.enqueue(t, "AAAAAA")
	f.now = msg.CreatedAt.Add(30 * time.Second)
	f.publisher.On("Publish", mock.Anything).Return(errors.New("broker down"))

	require.NoError(t, f.processor.ProcessOnce(ctx))

	stats := f.processor.GetStats()
	require.NotNil(t, stats.OldestMessageAt)
	assert.InDelta(t, 30, stats.LagSeconds, 0.01)
	assert.InDelta(t, 30, f.metrics.GetGauge(observability.MetricOutboxLag), 0.01)

	f.now = f.now.Add(time.Hour)
	f.publisher.ExpectedCalls = nil
	f.publisher.On("Publish", mock.Anything).Return(nil)
	require.NoError(t, f.processor.ProcessOnce(ctx))
	require.NoError(t, f.processor.ProcessOnce(ctx))
	assert.Zero(t, f.processor.GetStats().LagSeconds, "an empty pass clears the lag")
}

func TestProcessor_StartStop(t *testing.T) {
	f := newProcessorFixture(t, ProcessorConfig{PollInterval: time.Hour, BatchSize: 10, MaxRetries: 3})
	f.enqueue(t, "AAAAAA")
	delivered := make(chan struct{})
	f.publisher.On("Publish", mock.Anything).Return(nil).Run(func(mock.Arguments) { close(delivered) }).Once()

	require.NoError(t, f.processor.Start(context.Background()))
	require.NoError(t, f.processor.Start(context.Background()), "second start is a no-op")
	assert.True(t, f.processor.IsRunning())

	f.processor.Wake()
	f.processor.Wake()
	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("wake did not trigger a pass")
	}

	f.processor.Stop()
	f.processor.Stop()
	assert.False(t, f.processor.IsRunning())
	assert.False(t, f.processor.GetStats().IsRunning)
}

func TestProcessor_StopsWithParentContext(t *testing.T) {
	f := newProcessorFixture(t, ProcessorConfig{PollInterval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, f.processor.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !f.processor.IsRunning() }, time.Second, 10*time.Millisecond)
	f.processor.Stop()
}
