// Package rabbit owns the AMQP connection, channel, and queue topology.
package rabbit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"weathersink/internal/config"
)

// Queue topology shared by the consumer and the simulated station.
const (
	ExchangeName = "weather_data"
	QueueName    = "weather_queue"
	RoutingKey   = "raw_data"

	consumerTag = "weathersink-consumer"
)

// Client wraps one AMQP connection and one channel. Neither is shared
// across goroutines.
type Client struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger *slog.Logger
}

// Dial opens the broker connection and a channel. A single attempt; callers
// wrap it in the retry policy.
func Dial(cfg config.Config, logger *slog.Logger) (*Client, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.RabbitUser, cfg.RabbitPassword, cfg.RabbitHost, cfg.RabbitPort)

	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Dial:      amqp.DefaultDial(10 * time.Second),
		Properties: amqp.Table{
			"connection_name": "weathersink",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	return &Client{conn: conn, ch: ch, logger: logger}, nil
}

// DeclareTopology declares the durable direct exchange, the durable lazy
// queue, and their binding, then caps the channel at one unacknowledged
// delivery. Declarations are idempotent.
func (c *Client) DeclareTopology() error {
	if err := c.ch.ExchangeDeclare(
		ExchangeName,
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare exchange %s: %w", ExchangeName, err)
	}

	// Lazy mode keeps message bodies on disk to bound broker memory use.
	if _, err := c.ch.QueueDeclare(
		QueueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{"x-queue-mode": "lazy"},
	); err != nil {
		return fmt.Errorf("declare queue %s: %w", QueueName, err)
	}

	if err := c.ch.QueueBind(QueueName, RoutingKey, ExchangeName, false, nil); err != nil {
		return fmt.Errorf("bind %s to %s: %w", QueueName, ExchangeName, err)
	}

	// Prefetch=1 is the sole backpressure mechanism: the broker withholds
	// the next message until the current one is acked or nacked.
	if err := c.ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	c.logger.Info("queue topology declared",
		"exchange", ExchangeName,
		"queue", QueueName,
		"routing_key", RoutingKey,
		"prefetch", 1,
	)
	return nil
}

// Consume starts delivering messages from the queue. Acknowledgment is
// manual; the consumer decides each message's outcome.
func (c *Client) Consume() (<-chan amqp.Delivery, error) {
	deliveries, err := c.ch.Consume(
		QueueName,
		consumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", QueueName, err)
	}
	return deliveries, nil
}

// Publish sends one persistent JSON message to the weather exchange. Used by
// the simulated station.
func (c *Client) Publish(ctx context.Context, body []byte) error {
	return c.ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

// Close releases the channel and then the connection. Each release is
// attempted independently; errors are logged, not propagated, so one failing
// step never prevents the others.
func (c *Client) Close() {
	if c.ch != nil {
		if err := c.ch.Cancel(consumerTag, false); err != nil && !c.ch.IsClosed() {
			c.logger.Error("cancel consumer", "error", err)
		}
		if err := c.ch.Close(); err != nil {
			c.logger.Error("close channel", "error", err)
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Error("close connection", "error", err)
		}
	}
	c.logger.Info("broker connection released")
}
