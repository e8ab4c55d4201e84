package eventbus

import "context"

// Publisher delivers serialized domain events. The outbox processor is the
// only caller; routingKey is the event's type.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}
