package mq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/mzylinski/vatworker/internal/adapter/config"
	"github.com/mzylinski/vatworker/internal/core/domain"
)

const receivePollStep = 200 * time.Millisecond

// Client is a thin RabbitMQ wrapper over a single connection and channel.
// Connect declares the queue; the caller owns the connection for the whole
// worker run and releases it through Close.
type Client struct {
	logger  *zap.Logger
	url     string
	queue   string
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewClient(cfg *config.Broker, log *zap.Logger) (*Client, error) {
	return &Client{
		logger: log,
		url:    cfg.URL,
		queue:  cfg.Queue,
	}, nil
}

func (c *Client) Connect(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open a channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		c.queue,
		false, // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to declare queue %q: %w", c.queue, err)
	}

	c.conn = conn
	c.channel = channel
	c.logger.Info("connected to broker, queue declared", zap.String("queue", c.queue))

	return nil
}

func (c *Client) Close() error {
	if c.channel != nil && !c.channel.IsClosed() {
		if err := c.channel.Close(); err != nil {
			c.logger.Warn("error closing channel", zap.Error(err))
		}
	}
	if c.conn != nil && !c.conn.IsClosed() {
		if err := c.conn.Close(); err != nil {
			return fmt.Errorf("failed to close broker connection: %w", err)
		}
	}
	return nil
}

func (c *Client) Publish(ctx context.Context, queue string, body []byte) error {
	err := c.channel.PublishWithContext(
		ctx,
		"",    // exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %q: %w", queue, err)
	}

	c.logger.Debug("message published", zap.String("queue", queue))
	return nil
}

// ReceiveOne polls basic.get with auto-ack until a message arrives or the
// timeout expires. Used by tests and consumer collaborators only.
func (c *Client) ReceiveOne(ctx context.Context, queue string, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	for {
		msg, ok, err := c.channel.Get(queue, true)
		if err != nil {
			return nil, fmt.Errorf("failed to get from %q: %w", queue, err)
		}
		if ok {
			return msg.Body, nil
		}
		if !time.Now().Before(deadline) {
			return nil, domain.ErrQueueTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(receivePollStep):
		}
	}
}

func (c *Client) Purge(ctx context.Context, queue string) error {
	if _, err := c.channel.QueuePurge(queue, false); err != nil {
		return fmt.Errorf("failed to purge %q: %w", queue, err)
	}
	c.logger.Info("queue purged", zap.String("queue", queue))
	return nil
}
