package workers

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/huddle/internal/attendance/application/commands"
	"github.com/felixgeelhaar/huddle/pkg/observability"
	"github.com/google/uuid"
)

// DefaultSweepInterval is how often the sweeper looks for expired sessions.
const DefaultSweepInterval = time.Second

// ExpiredSessionFinder lists meetings whose open session has timed out.
type ExpiredSessionFinder interface {
	FindExpired(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

// Expirer finalizes one meeting's expired session.
type Expirer interface {
	Handle(ctx context.Context, cmd commands.ExpireAttendanceCommand) (*commands.EndAttendanceResult, error)
}

// ExpirySweeperConfig configures the sweeper.
type ExpirySweeperConfig struct {
	Interval  time.Duration
	BatchSize int
}

// DefaultExpirySweeperConfig returns the default configuration.
func DefaultExpirySweeperConfig() ExpirySweeperConfig {
	return ExpirySweeperConfig{
		Interval:  DefaultSweepInterval,
		BatchSize: 100,
	}
}

// ExpirySweeper finalizes attendance sessions that outlived their deadline
// without being ended. Running several sweepers at once is safe.
type ExpirySweeper struct {
	finder  ExpiredSessionFinder
	expirer Expirer
	config  ExpirySweeperConfig
	logger  *slog.Logger
	metrics observability.Metrics
	now     func() time.Time

	running  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewExpirySweeper creates a new ExpirySweeper.
func NewExpirySweeper(finder ExpiredSessionFinder, expirer Expirer, config ExpirySweeperConfig, logger *slog.Logger) *ExpirySweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Interval <= 0 {
		config.Interval = DefaultSweepInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	return &ExpirySweeper{
		finder:  finder,
		expirer: expirer,
		config:  config,
		logger:  logger,
		metrics: observability.NoopMetrics{},
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
}

// SetMetrics counts finalized sessions into m.
func (s *ExpirySweeper) SetMetrics(m observability.Metrics) {
	if m != nil {
		s.metrics = m
	}
}

// Run sweeps until the context is cancelled or Stop is called.
func (s *ExpirySweeper) Run(ctx context.Context) error {
	s.running.Store(true)
	defer s.running.Store(false)
	s.logger.Info("attendance expiry sweeper started", "interval", s.config.Interval)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("attendance expiry sweeper stopped")
			return ctx.Err()
		case <-s.stopCh:
			s.logger.Info("attendance expiry sweeper stopped")
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Stop signals the sweeper to stop.
func (s *ExpirySweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// IsRunning reports whether Run is active.
func (s *ExpirySweeper) IsRunning() bool {
	return s.running.Load()
}

// Sweep runs one pass and returns how many sessions it finalized.
func (s *ExpirySweeper) Sweep(ctx context.Context) int {
	meetingIDs, err := s.finder.FindExpired(ctx, s.now(), s.config.BatchSize)
	if err != nil {
		s.logger.Error("failed to find expired attendance sessions", "error", err)
		return 0
	}

	finalized := 0
	for _, meetingID := range meetingIDs {
		if ctx.Err() != nil {
			return finalized
		}
		result, err := s.expirer.Handle(ctx, commands.ExpireAttendanceCommand{MeetingID: meetingID})
		if err != nil {
			s.logger.Error("failed to expire attendance session", "meeting_id", meetingID, "error", err)
			continue
		}
		if result.Ended {
			finalized++
		}
	}
	if finalized > 0 {
		s.metrics.Counter(observability.MetricSweeperExpired, int64(finalized))
	}
	return finalized
}
