package observability

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	correlationIDCtxKey contextKey = "correlation_id"
	requestIDCtxKey     contextKey = "request_id"
	actorCtxKey         contextKey = "actor"
)

// Attribute keys shared by logs and event metadata.
const (
	CorrelationIDKey = "correlation_id"
	RequestIDKey     = "request_id"
	ActorKey         = "actor"
	MeetingIDKey     = "meeting_id"
	DurationKey      = "duration_ms"
	ErrorKey         = "error"
)

// WithCorrelationID tags ctx with the ID that ties a command to the events
// it produces. An empty id generates one.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.New().String()
	}
	return context.WithValue(ctx, correlationIDCtxKey, id)
}

// CorrelationIDFromContext returns the correlation ID, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return stringValue(ctx, correlationIDCtxKey)
}

// WithRequestID tags ctx with a transport-level request ID. An empty id
// generates one.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.New().String()
	}
	return context.WithValue(ctx, requestIDCtxKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDCtxKey)
}

// WithActor records the user a command acts as.
func WithActor(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, actorCtxKey, userID.String())
}

func ActorFromContext(ctx context.Context) string {
	return stringValue(ctx, actorCtxKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}
