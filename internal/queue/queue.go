package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"reelforge/internal/config"
	"reelforge/internal/logging"
	"reelforge/internal/services"
)

const dialAttempts = 5

// Client wraps an AMQP connection plus the declared job queue.
type Client struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	queue    string
	prefetch int
	logger   *slog.Logger
}

// Dial connects to the broker and declares the durable job queue. Connection
// attempts back off so the worker survives a broker that is still starting.
func Dial(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Client, error) {
	logger = logging.NewComponentLogger(logger, "queue")

	var (
		conn *amqp.Connection
		err  error
	)
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		conn, err = amqp.Dial(cfg.AMQP.URL)
		if err == nil {
			break
		}
		if attempt == dialAttempts {
			return nil, services.Wrap(services.ErrTransient, "queue", "dial", "connect to broker", err)
		}
		logger.Warn("broker connection failed, retrying",
			logging.Int("attempt", attempt),
			logging.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, services.Wrap(services.ErrTransient, "queue", "channel", "open channel", err)
	}

	if _, err := ch.QueueDeclare(
		cfg.AMQP.QueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, services.Wrap(services.ErrTransient, "queue", "declare", "declare queue", err)
	}

	return &Client{
		conn:     conn,
		ch:       ch,
		queue:    cfg.AMQP.QueueName,
		prefetch: cfg.AMQP.Prefetch,
		logger:   logger,
	}, nil
}

// Close tears down the channel and connection.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Publish sends an envelope as a persistent JSON message.
func (c *Client) Publish(ctx context.Context, env Envelope) error {
	body, err := env.Encode()
	if err != nil {
		return err
	}
	err = c.ch.PublishWithContext(
		ctx,
		"",      // default exchange
		c.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return services.Wrap(services.ErrTransient, "queue", "publish", fmt.Sprintf("publish job %d", env.JobID), err)
	}
	c.logger.Debug("envelope published",
		logging.Int64(logging.FieldJobID, env.JobID),
		logging.Int("attempt", env.Attempt),
	)
	return nil
}

// Handler processes one delivered envelope. A nil return acknowledges the
// message; an error lets the consumer decide between republishing with a
// bumped attempt counter and dropping the message.
type Handler func(ctx context.Context, env Envelope) error

// Consume pulls envelopes one at a time until ctx is cancelled. maxAttempts
// bounds how many times a failing envelope is republished before it is
// dropped; the job row keeps the failure detail either way. Malformed
// deliveries are acknowledged and skipped.
func (c *Client) Consume(ctx context.Context, maxAttempts int, handler Handler) error {
	if err := c.ch.Qos(c.prefetch, 0, false); err != nil {
		return services.Wrap(services.ErrTransient, "queue", "qos", "set prefetch", err)
	}

	deliveries, err := c.ch.Consume(
		c.queue,
		"",    // consumer tag
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return services.Wrap(services.ErrTransient, "queue", "consume", "register consumer", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return services.Wrap(services.ErrTransient, "queue", "consume", "delivery channel closed", nil)
			}
			c.handleDelivery(ctx, delivery, maxAttempts, handler)
		}
	}
}

func (c *Client) handleDelivery(ctx context.Context, delivery amqp.Delivery, maxAttempts int, handler Handler) {
	env, err := DecodeEnvelope(delivery.Body)
	if err != nil {
		c.logger.Error("dropping malformed envelope", logging.Error(err))
		_ = delivery.Ack(false)
		return
	}

	err = handler(ctx, env)
	if err == nil {
		_ = delivery.Ack(false)
		return
	}

	next := env.NextAttempt()
	if next.Attempt >= maxAttempts || !services.IsRetriable(err) {
		c.logger.Error("envelope exhausted",
			logging.Int64(logging.FieldJobID, env.JobID),
			logging.Int("attempt", env.Attempt),
			logging.Error(err),
		)
		_ = delivery.Ack(false)
		return
	}

	c.logger.Warn("republishing failed envelope",
		logging.Int64(logging.FieldJobID, env.JobID),
		logging.Int("next_attempt", next.Attempt),
		logging.Error(err),
	)
	if pubErr := c.Publish(ctx, next); pubErr != nil {
		// Leave the original unacked so the broker re-delivers it.
		c.logger.Error("republish failed, requeueing delivery",
			logging.Int64(logging.FieldJobID, env.JobID),
			logging.Error(pubErr),
		)
		_ = delivery.Nack(false, true)
		return
	}
	_ = delivery.Ack(false)
}
