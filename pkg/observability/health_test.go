package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthRegistry_OverallStatus(t *testing.T) {
	registry := NewHealthRegistry()
	registry.Register("database", DatabaseHealthChecker(func(context.Context) error { return nil }))
	registry.Register("redis", RedisHealthChecker(func(context.Context) error { return errors.New("refused") }))

	health := registry.GetOverallHealth(context.Background())

	assert.Equal(t, HealthStatusDegraded, health.Status)
	require.Len(t, health.Checks, 2)
	assert.Equal(t, HealthStatusHealthy, health.Checks["database"].Status)
	assert.Contains(t, health.Checks["redis"].Message, "refused")
}

func TestOutboxHealthChecker(t *testing.T) {
	tests := []struct {
		name string
		snap OutboxSnapshot
		want HealthStatus
	}{
		{"idle", OutboxSnapshot{}, HealthStatusHealthy},
		{"running", OutboxSnapshot{Running: true, LagSeconds: 3}, HealthStatusHealthy},
		{"dead letters", OutboxSnapshot{Running: true, DeadCount: 2}, HealthStatusDegraded},
		{"lagging", OutboxSnapshot{Running: true, LagSeconds: 600}, HealthStatusDegraded},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			checker := OutboxHealthChecker(func() OutboxSnapshot { return tc.snap })
			assert.Equal(t, tc.want, checker(context.Background()).Status)
		})
	}
}

func TestHealthRegistry_Handler(t *testing.T) {
	registry := NewHealthRegistry()
	registry.Register("database", DatabaseHealthChecker(func(context.Context) error { return nil }))

	rec := httptest.NewRecorder()
	registry.Handler(time.Second).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body OverallHealth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, HealthStatusHealthy, body.Status)

	registry.Register("database", DatabaseHealthChecker(func(context.Context) error { return errors.New("down") }))
	rec = httptest.NewRecorder()
	registry.Handler(time.Second).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthRegistry_WorstStatusWins(t *testing.T) {
	registry := NewHealthRegistry()
	assert.Equal(t, HealthStatusHealthy, registry.GetOverallHealth(context.Background()).Status, "no checks")

	registry.Register("rabbitmq", RabbitMQHealthChecker(func(context.Context) error { return errors.New("closed") }))
	registry.Register("database", DatabaseHealthChecker(func(context.Context) error { return errors.New("locked") }))

	health := registry.GetOverallHealth(context.Background())
	assert.Equal(t, HealthStatusUnhealthy, health.Status)
	assert.Equal(t, HealthStatusDegraded, health.Checks["rabbitmq"].Status)
	assert.False(t, health.Checks["database"].Timestamp.IsZero())
}
