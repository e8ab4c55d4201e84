package outbox

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/huddle/pkg/observability"
)

// ProcessorConfig tunes the delivery loop.
type ProcessorConfig struct {
	PollInterval     time.Duration
	BatchSize        int
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
}

// DefaultProcessorConfig polls every 100ms and gives up on a message after
// five attempts.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     100 * time.Millisecond,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
	}
}

// backoff doubles base per prior attempt, capped at max.
func (c ProcessorConfig) backoff(attempt int) time.Duration {
	base, ceiling := c.RetryBackoffBase, c.RetryBackoffMax
	if base <= 0 {
		base = time.Second
	}
	if ceiling <= 0 {
		ceiling = time.Minute
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= ceiling || d <= 0 {
			return ceiling
		}
	}
	return min(d, ceiling)
}

// exhausted reports whether a message that already failed retries times has
// used its last attempt.
func (c ProcessorConfig) exhausted(retries int) bool {
	return c.MaxRetries <= 0 || retries+1 >= c.MaxRetries
}

type outcome int

const (
	delivered outcome = iota
	retryLater
	deadLettered
)

// Stats is a point-in-time view of the processor for health checks.
type Stats struct {
	IsRunning       bool
	PublishedCount  uint64
	FailedCount     uint64
	DeadCount       uint64
	LagSeconds      float64
	LastError       string
	LastErrorAt     *time.Time
	LastProcessedAt *time.Time
	OldestMessageAt *time.Time
}

// Processor moves committed outbox rows onto the event bus. It polls on an
// interval and Wake triggers an early pass.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	cfg       ProcessorConfig
	logger    *slog.Logger
	metrics   observability.Metrics
	wake      chan struct{}
	now       func() time.Time

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}

	published atomic.Uint64
	failed    atomic.Uint64
	dead      atomic.Uint64

	mu       sync.Mutex
	lastErr  string
	lastErrT *time.Time
	lastPass *time.Time
	oldest   *time.Time
}

func NewProcessor(repo Repository, publisher eventbus.Publisher, cfg ProcessorConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultProcessorConfig().BatchSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultProcessorConfig().PollInterval
	}
	return &Processor{
		repo:      repo,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.With("component", "outbox"),
		metrics:   observability.NoopMetrics{},
		wake:      make(chan struct{}, 1),
		now:       time.Now,
	}
}

// SetMetrics routes delivery counters to m. Nil is ignored.
func (p *Processor) SetMetrics(m observability.Metrics) {
	if m != nil {
		p.metrics = m
	}
}

// Wake requests an immediate pass. It never blocks; repeated calls before
// the loop picks one up collapse into one.
func (p *Processor) Wake() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Start launches the loop. The loop ends when ctx is cancelled or Stop is
// called. Starting a running processor is a no-op.
func (p *Processor) Start(ctx context.Context) error {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	if p.cancel != nil {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(loopCtx, p.done)

	p.logger.Info("outbox processor started",
		"poll_interval", p.cfg.PollInterval,
		"batch_size", p.cfg.BatchSize,
		"max_retries", p.cfg.MaxRetries,
	)
	return nil
}

// Stop cancels the loop and waits for the in-flight pass to finish.
func (p *Processor) Stop() {
	p.lifecycle.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.lifecycle.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.logger.Info("outbox processor stopped")
}

func (p *Processor) IsRunning() bool {
	p.lifecycle.Lock()
	done := p.done
	p.lifecycle.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

func (p *Processor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-p.wake:
		}
		if err := p.ProcessOnce(ctx); err != nil && ctx.Err() == nil {
			p.logger.Error("outbox pass failed", observability.ErrorKey, err)
		}
	}
}

// ProcessOnce runs a single pass over up to BatchSize due messages.
// Per-message failures are recorded on the row; only a failed fetch is
// returned.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	batch, err := p.repo.GetUnpublished(ctx, p.cfg.BatchSize)
	if err != nil {
		p.noteError(err)
		return err
	}
	p.notePass(batch)

	for _, msg := range batch {
		if ctx.Err() != nil {
			return nil
		}
		result, pubErr := p.deliver(ctx, msg)
		p.settle(ctx, msg, result, pubErr)
	}
	return nil
}

func (p *Processor) deliver(ctx context.Context, msg *Message) (outcome, error) {
	err := p.publisher.Publish(ctx, msg.RoutingKey, msg.Payload)
	switch {
	case err == nil:
		return delivered, nil
	case p.cfg.exhausted(msg.RetryCount):
		return deadLettered, err
	default:
		return retryLater, err
	}
}

func (p *Processor) settle(ctx context.Context, msg *Message, result outcome, pubErr error) {
	ctx, log := p.messageLogger(ctx, msg)

	var markErr error
	switch result {
	case delivered:
		if markErr = p.repo.MarkPublished(ctx, msg.ID); markErr == nil {
			p.published.Add(1)
			p.metrics.Counter(observability.MetricOutboxPublished, 1, observability.T("routing_key", msg.RoutingKey))
		}
	case retryLater:
		attempt := msg.RetryCount + 1
		retryAt := p.now().Add(p.cfg.backoff(attempt))
		log.WarnContext(ctx, "outbox publish failed, will retry",
			"attempt", attempt, "retry_at", retryAt, observability.ErrorKey, pubErr)
		p.failed.Add(1)
		p.noteError(pubErr)
		p.metrics.Counter(observability.MetricOutboxFailed, 1, observability.T("routing_key", msg.RoutingKey))
		markErr = p.repo.MarkFailed(ctx, msg.ID, pubErr.Error(), retryAt)
	case deadLettered:
		log.ErrorContext(ctx, "outbox message dead-lettered",
			"attempts", msg.RetryCount+1, observability.ErrorKey, pubErr)
		p.dead.Add(1)
		p.noteError(pubErr)
		p.metrics.Counter(observability.MetricOutboxDead, 1, observability.T("routing_key", msg.RoutingKey))
		markErr = p.repo.MarkDead(ctx, msg.ID, pubErr.Error())
	}

	if markErr != nil {
		log.ErrorContext(ctx, "outbox row update failed", observability.ErrorKey, markErr)
	}
}

// messageLogger scopes logs to one message and carries the envelope's
// correlation ID into ctx.
func (p *Processor) messageLogger(ctx context.Context, msg *Message) (context.Context, *slog.Logger) {
	log := p.logger.With("outbox_id", msg.ID, "event_id", msg.EventID, "routing_key", msg.RoutingKey)
	meta := msg.Metadata()
	if meta.CorrelationID != "" {
		ctx = observability.WithCorrelationID(ctx, meta.CorrelationID)
	}
	if meta.CausationID != "" {
		log = log.With("causation_id", meta.CausationID)
	}
	return ctx, log
}

func (p *Processor) noteError(err error) {
	now := p.now()
	p.mu.Lock()
	p.lastErr = err.Error()
	p.lastErrT = &now
	p.mu.Unlock()
}

func (p *Processor) notePass(batch []*Message) {
	now := p.now()
	var oldest *time.Time
	for _, msg := range batch {
		if oldest == nil || msg.CreatedAt.Before(*oldest) {
			created := msg.CreatedAt
			oldest = &created
		}
	}

	p.mu.Lock()
	p.lastPass = &now
	p.oldest = oldest
	p.mu.Unlock()

	lag := 0.0
	if oldest != nil {
		lag = now.Sub(*oldest).Seconds()
	}
	p.metrics.Gauge(observability.MetricOutboxLag, lag)
}

func (p *Processor) GetStats() Stats {
	stats := Stats{
		IsRunning:      p.IsRunning(),
		PublishedCount: p.published.Load(),
		FailedCount:    p.failed.Load(),
		DeadCount:      p.dead.Load(),
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	stats.LastError = p.lastErr
	stats.LastErrorAt = p.lastErrT
	stats.LastProcessedAt = p.lastPass
	stats.OldestMessageAt = p.oldest
	if p.oldest != nil && p.lastPass != nil {
		stats.LagSeconds = p.lastPass.Sub(*p.oldest).Seconds()
	}
	return stats
}
