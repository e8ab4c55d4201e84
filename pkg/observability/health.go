package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"sync"
	"time"
)

type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

func (s HealthStatus) severity() int {
	switch s {
	case HealthStatusUnhealthy:
		return 2
	case HealthStatusDegraded:
		return 1
	default:
		return 0
	}
}

type HealthCheckResult struct {
	Status    HealthStatus   `json:"status"`
	Message   string         `json:"message,omitempty"`
	Duration  time.Duration  `json:"duration_ns"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// HealthChecker probes one dependency. Duration and Timestamp are filled in
// by the registry.
type HealthChecker func(ctx context.Context) HealthCheckResult

// OverallHealth is the worst status across all checks, plus each result.
type OverallHealth struct {
	Status    HealthStatus                 `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Checks    map[string]HealthCheckResult `json:"checks"`
}

// HealthRegistry runs named checks concurrently. Registering a name twice
// replaces the earlier checker.
type HealthRegistry struct {
	mu       sync.RWMutex
	checkers map[string]HealthChecker
}

func NewHealthRegistry() *HealthRegistry {
	return &HealthRegistry{checkers: make(map[string]HealthChecker)}
}

func (r *HealthRegistry) Register(name string, checker HealthChecker) {
	r.mu.Lock()
	r.checkers[name] = checker
	r.mu.Unlock()
}

// GetOverallHealth runs every check and folds the results. An empty
// registry is healthy.
func (r *HealthRegistry) GetOverallHealth(ctx context.Context) OverallHealth {
	r.mu.RLock()
	names := slices.Sorted(maps.Keys(r.checkers))
	checkers := make([]HealthChecker, len(names))
	for i, name := range names {
		checkers[i] = r.checkers[name]
	}
	r.mu.RUnlock()

	results := make([]HealthCheckResult, len(names))
	var wg sync.WaitGroup
	for i, check := range checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			res := check(ctx)
			res.Duration = time.Since(start)
			res.Timestamp = time.Now()
			results[i] = res
		}()
	}
	wg.Wait()

	overall := OverallHealth{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now(),
		Checks:    make(map[string]HealthCheckResult, len(names)),
	}
	for i, name := range names {
		overall.Checks[name] = results[i]
		if results[i].Status.severity() > overall.Status.severity() {
			overall.Status = results[i].Status
		}
	}
	return overall
}

// Handler serves GetOverallHealth as JSON, bounded by timeout. Unhealthy
// answers 503; degraded still answers 200.
func (r *HealthRegistry) Handler(timeout time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), timeout)
		defer cancel()

		health := r.GetOverallHealth(ctx)
		w.Header().Set("Content-Type", "application/json")
		if health.Status == HealthStatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(health)
	})
}

// pingChecker maps a failed ping to onFailure.
func pingChecker(component string, onFailure HealthStatus, ping func(context.Context) error) HealthChecker {
	return func(ctx context.Context) HealthCheckResult {
		if err := ping(ctx); err != nil {
			return HealthCheckResult{Status: onFailure, Message: fmt.Sprintf("%s unreachable: %v", component, err)}
		}
		return HealthCheckResult{Status: HealthStatusHealthy, Message: component + " reachable"}
	}
}

// DatabaseHealthChecker fails hard: nothing works without the store.
func DatabaseHealthChecker(ping func(context.Context) error) HealthChecker {
	return pingChecker("database", HealthStatusUnhealthy, ping)
}

// RedisHealthChecker degrades only; locks fall back to in-process.
func RedisHealthChecker(ping func(context.Context) error) HealthChecker {
	return pingChecker("redis", HealthStatusDegraded, ping)
}

// RabbitMQHealthChecker degrades only; events wait in the outbox.
func RabbitMQHealthChecker(ping func(context.Context) error) HealthChecker {
	return pingChecker("rabbitmq", HealthStatusDegraded, ping)
}

// OutboxSnapshot is what the outbox check reads from the processor.
type OutboxSnapshot struct {
	Running    bool
	DeadCount  uint64
	LagSeconds float64
}

// MaxHealthyOutboxLag is the oldest-pending age past which delivery counts
// as degraded.
const MaxHealthyOutboxLag = 5 * time.Minute

// OutboxHealthChecker degrades on lag or dead letters. A stopped processor
// is fine: one-shot CLI runs never start it.
func OutboxHealthChecker(stats func() OutboxSnapshot) HealthChecker {
	return func(context.Context) HealthCheckResult {
		snap := stats()
		res := HealthCheckResult{
			Status:  HealthStatusHealthy,
			Message: "outbox draining",
			Details: map[string]any{
				"running":     snap.Running,
				"dead":        snap.DeadCount,
				"lag_seconds": snap.LagSeconds,
			},
		}
		switch {
		case snap.LagSeconds > MaxHealthyOutboxLag.Seconds():
			res.Status = HealthStatusDegraded
			res.Message = fmt.Sprintf("outbox lag %.0fs", snap.LagSeconds)
		case snap.DeadCount > 0:
			res.Status = HealthStatusDegraded
			res.Message = fmt.Sprintf("%d dead-lettered messages", snap.DeadCount)
		}
		return res
	}
}
