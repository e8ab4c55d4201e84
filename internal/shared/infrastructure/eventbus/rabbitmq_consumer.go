package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/huddle/pkg/observability"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultConsumerQueueName is the durable queue the worker drains to
// write personal calendar events.
const DefaultConsumerQueueName = "huddle.calendar-fanout"

// deadLetterSuffix names the queue that receives messages which failed
// twice. They are parked there for inspection instead of looping.
const deadLetterSuffix = ".dead"

// RabbitMQConsumer reads domain events from a durable queue bound to the
// topic exchange and dispatches them through a ConsumerRegistry. A message
// whose handler fails is requeued once; a second failure dead-letters it.
type RabbitMQConsumer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	queue    string
	exchange string
	registry *ConsumerRegistry
	logger   *slog.Logger

	mu        sync.Mutex
	running   bool
	closeOnce sync.Once
	closed    chan struct{}
}

type RabbitMQConsumerConfig struct {
	URL       string
	QueueName string
	Exchange  string
	Logger    *slog.Logger
}

// NewRabbitMQConsumer connects and declares the exchange, the work queue
// and its dead-letter queue.
func NewRabbitMQConsumer(cfg RabbitMQConsumerConfig, registry *ConsumerRegistry) (*RabbitMQConsumer, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.QueueName == "" {
		cfg.QueueName = DefaultConsumerQueueName
	}
	if cfg.Exchange == "" {
		cfg.Exchange = ExchangeName
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareTopology(ch, cfg.Exchange, cfg.QueueName); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	cfg.Logger.Info("rabbitmq consumer connected", "queue", cfg.QueueName, "exchange", cfg.Exchange)

	return &RabbitMQConsumer{
		conn:     conn,
		channel:  ch,
		queue:    cfg.QueueName,
		exchange: cfg.Exchange,
		registry: registry,
		logger:   cfg.Logger,
		closed:   make(chan struct{}),
	}, nil
}

func declareTopology(ch *amqp.Channel, exchange, queue string) error {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	dead := queue + deadLetterSuffix
	if _, err := ch.QueueDeclare(dead, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dead-letter queue: %w", err)
	}
	// The default exchange routes by queue name, so rejected messages
	// land on the dead-letter queue without a second exchange.
	_, err := ch.QueueDeclare(queue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": dead,
	})
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	return nil
}

// RegisterConsumer adds consumer to the registry and binds each of its
// event types to the queue.
func (c *RabbitMQConsumer) RegisterConsumer(consumer EventConsumer) {
	c.registry.Register(consumer)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, eventType := range consumer.EventTypes() {
		if err := c.channel.QueueBind(c.queue, eventType, c.exchange, false, nil); err != nil {
			c.logger.Error("failed to bind queue", "routing_key", eventType, "error", err)
			continue
		}
		c.logger.Debug("bound queue", "queue", c.queue, "routing_key", eventType)
	}
}

// Start consumes until ctx is canceled or Close is called. It blocks.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("consumer already running")
	}
	c.running = true
	c.mu.Unlock()

	// Fan-out writes one calendar row per participant; keep one message
	// in flight so a slow mirror applies backpressure.
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	c.logger.Info("consuming events", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			return nil
		case msg, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.handle(ctx, msg)
		}
	}
}

func (c *RabbitMQConsumer) handle(ctx context.Context, msg amqp.Delivery) {
	event, err := decodeEnvelope(msg.RoutingKey, msg.Body)
	if err != nil {
		c.logger.Error("discarding undecodable event", "routing_key", msg.RoutingKey, "error", err)
		c.settle(msg, msg.Reject(false))
		return
	}
	ctx = event.dispatchContext(ctx)

	start := time.Now()
	err = c.registry.Dispatch(ctx, event)
	logger := c.logger.With(
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		observability.DurationKey, time.Since(start).Milliseconds(),
	)
	if err == nil {
		logger.DebugContext(ctx, "event processed")
		c.settle(msg, msg.Ack(false))
		return
	}

	if msg.Redelivered {
		logger.ErrorContext(ctx, "event failed again; dead-lettering", "error", err)
		c.settle(msg, msg.Nack(false, false))
		return
	}
	logger.WarnContext(ctx, "event failed; requeueing", "error", err)
	c.settle(msg, msg.Nack(false, true))
}

func (c *RabbitMQConsumer) settle(msg amqp.Delivery, err error) {
	if err != nil {
		c.logger.Error("failed to settle delivery", "delivery_tag", msg.DeliveryTag, "error", err)
	}
}

// Close stops Start and closes the connection. It is safe to call twice.
func (c *RabbitMQConsumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)

		c.mu.Lock()
		defer c.mu.Unlock()
		c.running = false
		if c.channel != nil {
			if chErr := c.channel.Close(); chErr != nil {
				c.logger.Warn("error closing channel", "error", chErr)
			}
		}
		if c.conn != nil {
			err = c.conn.Close()
		}
		c.logger.Info("rabbitmq consumer closed")
	})
	return err
}
