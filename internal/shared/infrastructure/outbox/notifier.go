package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// NotifyChannel is the PostgreSQL channel the outbox insert trigger signals.
const NotifyChannel = "huddle_outbox"

// Waker is anything that can be nudged to process the outbox now.
type Waker interface {
	Wake()
}

// PostgresNotifier listens for outbox inserts and wakes the processor, so
// delivery latency does not depend on the poll interval.
type PostgresNotifier struct {
	url    string
	waker  Waker
	logger *slog.Logger
}

// NewPostgresNotifier creates a notifier for the database at url.
func NewPostgresNotifier(url string, waker Waker, logger *slog.Logger) *PostgresNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresNotifier{url: url, waker: waker, logger: logger}
}

// Run blocks until ctx is cancelled.
func (n *PostgresNotifier) Run(ctx context.Context) error {
	listener := pq.NewListener(n.url, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnectionAttemptFailed, pq.ListenerEventDisconnected:
			n.logger.Warn("outbox listener connection problem", "event", int(ev), "error", err)
		case pq.ListenerEventReconnected:
			n.logger.Info("outbox listener reconnected")
			// Inserts may have landed while disconnected.
			n.waker.Wake()
		}
	})
	defer listener.Close()

	if err := listener.Listen(NotifyChannel); err != nil {
		return err
	}
	n.logger.Info("outbox listener started", "channel", NotifyChannel)

	keepalive := time.NewTicker(90 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case notification := <-listener.Notify:
			if notification != nil {
				n.waker.Wake()
			}
		case <-keepalive.C:
			if err := listener.Ping(); err != nil {
				n.logger.Warn("outbox listener ping failed", "error", err)
			}
		}
	}
}
