package observability

import (
	"context"
	"log/slog"
	"time"
)

// Observe runs fn as the named operation. Every call bumps
// MetricOperationTotal and records MetricOperationDuration; failures also
// bump MetricOperationErrors and are logged at warn. Successful calls log
// at debug. A nil logger or metrics disables that half.
func Observe[R any](ctx context.Context, logger *slog.Logger, metrics Metrics, operation string, fn func(context.Context) (R, error)) (R, error) {
	start := time.Now()
	result, err := fn(ctx)
	elapsed := time.Since(start)

	tag := T("operation", operation)
	if metrics != nil {
		metrics.Counter(MetricOperationTotal, 1, tag)
		metrics.Timing(MetricOperationDuration, elapsed, tag)
		if err != nil {
			metrics.Counter(MetricOperationErrors, 1, tag)
		}
	}

	if logger != nil {
		attrs := []any{"operation", operation, DurationKey, elapsed.Milliseconds()}
		if err != nil {
			logger.WarnContext(ctx, "operation failed", append(attrs, ErrorKey, err)...)
		} else {
			logger.DebugContext(ctx, "operation completed", attrs...)
		}
	}
	return result, err
}
