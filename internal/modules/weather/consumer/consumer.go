// Package consumer runs the receive-process-acknowledge loop.
package consumer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"weathersink/internal/metrics"
	"weathersink/internal/modules/weather/repository"
	"weathersink/internal/modules/weather/validate"
)

// ErrDeliveriesClosed is returned when the broker closes the delivery
// channel mid-run. There is no broker-side reconnection path; the process
// exits and supervision restarts it.
var ErrDeliveriesClosed = errors.New("delivery channel closed by broker")

// StoreDialer re-establishes the store connection under the bounded retry
// policy and re-runs schema initialization, returning a ready repository.
type StoreDialer func(ctx context.Context) (repository.WeatherRepository, error)

// Consumer processes one message at a time: validate, persist, acknowledge.
// It exclusively owns the store handle; reconnection replaces it wholesale.
// The mutex only guards the handle swap so the health endpoint can ping the
// current store without racing a reconnection.
type Consumer struct {
	mu      sync.RWMutex
	repo    repository.WeatherRepository
	redial  StoreDialer
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(repo repository.WeatherRepository, redial StoreDialer, logger *slog.Logger, m *metrics.Metrics) *Consumer {
	return &Consumer{repo: repo, redial: redial, logger: logger, metrics: m}
}

// Ping checks connectivity of the current store handle.
func (c *Consumer) Ping(ctx context.Context) error {
	c.mu.RLock()
	repo := c.repo
	c.mu.RUnlock()
	return repo.Ping(ctx)
}

// CloseStore releases whichever store handle the consumer currently owns.
// Part of teardown; the error is logged, not propagated, so this release
// never prevents the others.
func (c *Consumer) CloseStore() {
	if err := c.currentRepo().Close(); err != nil {
		c.logger.Error("close store", "error", err)
		return
	}
	c.logger.Info("store connection released")
}

func (c *Consumer) currentRepo() repository.WeatherRepository {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.repo
}

func (c *Consumer) swapRepo(repo repository.WeatherRepository) {
	c.mu.Lock()
	c.repo = repo
	c.mu.Unlock()
}

// Run consumes deliveries until the context is cancelled or the delivery
// channel closes. Strictly sequential: each message is fully resolved before
// the next is received, so acknowledgments keep delivery order.
func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	c.logger.Info("consuming messages")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}
			if err := c.handle(ctx, d); err != nil {
				return err
			}
		}
	}
}

// handle resolves a single delivery. The returned error is non-nil only for
// unrecoverable conditions (store reconnection exhausted); message-level
// failures are resolved entirely in here and never escape.
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) error {
	c.metrics.Consumed.Inc()

	reading, err := validate.Validate(d.Body)
	if err == nil {
		err = c.currentRepo().InsertReading(ctx, reading)
	}
	if err != nil && errors.Is(err, context.Canceled) {
		// Shutdown raced the insert. Leave the message unacked so the
		// broker redelivers it on the next run.
		return err
	}

	switch Resolve(err) {
	case OutcomeAck:
		if ackErr := d.Ack(false); ackErr != nil {
			c.logger.Error("ack failed", "error", ackErr)
			return nil
		}
		c.metrics.Acked.Inc()
		c.logger.Info("reading stored",
			"timestamp", reading.Timestamp,
			"temperature", reading.Temperature,
			"humidity", reading.Humidity,
		)
		if reading.Irradiance != nil {
			// Transported on the wire but not a column; surfaced here only.
			c.logger.Debug("irradiance received", "irradiance", *reading.Irradiance)
		}

	case OutcomeRequeue:
		c.logger.Error("store failure, reconnecting before redelivery", "error", err)
		if reErr := c.reconnectStore(ctx); reErr != nil {
			// Requeue anyway so the message survives the restart.
			_ = d.Nack(false, true)
			return reErr
		}
		if nackErr := d.Nack(false, true); nackErr != nil {
			c.logger.Error("nack(requeue) failed", "error", nackErr)
			return nil
		}
		c.metrics.Requeued.Inc()

	case OutcomeDiscard:
		c.logDiscard(err, d.Body)
		if nackErr := d.Nack(false, false); nackErr != nil {
			c.logger.Error("nack(discard) failed", "error", nackErr)
			return nil
		}
		c.metrics.Discarded.Inc()
	}
	return nil
}

// reconnectStore closes the owned store handle, dials a fresh one under the
// retry policy, and re-runs schema initialization. The old handle is
// replaced wholesale.
func (c *Consumer) reconnectStore(ctx context.Context) error {
	c.metrics.Reconnects.Inc()

	if err := c.currentRepo().Close(); err != nil {
		c.logger.Warn("closing stale store connection", "error", err)
	}

	repo, err := c.redial(ctx)
	if err != nil {
		return err
	}
	c.swapRepo(repo)
	c.logger.Info("store connection re-established")
	return nil
}

func (c *Consumer) logDiscard(err error, body []byte) {
	var vErr *validate.Error
	if errors.As(err, &vErr) {
		c.logger.Error("message rejected, discarding",
			"kind", vErr.Kind.String(),
			"fields", vErr.Fields,
			"error", err,
			"payload", string(body),
		)
		return
	}
	c.logger.Error("unexpected processing failure, discarding",
		"error", err,
		"payload", string(body),
	)
}
