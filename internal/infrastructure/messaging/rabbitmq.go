package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeKindDirect = amqp.ExchangeDirect
	ContentTypeJSON    = "application/json"
)

// Channel is the subset of *amqp.Channel used for publishing.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Connection is the subset of *amqp.Connection used for publishing.
type Connection interface {
	Channel() (Channel, error)
	Close() error
}

// Dialer opens a new broker connection.
type Dialer func(ctx context.Context, uri string) (Connection, error)

type amqpConnection struct {
	conn *amqp.Connection
}

func (c *amqpConnection) Channel() (Channel, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (c *amqpConnection) Close() error {
	return c.conn.Close()
}

// NewDialer returns a Dialer backed by amqp091 with the given connect
// timeout. The context bounds the dial as well.
func NewDialer(appName string, timeout time.Duration) Dialer {
	return func(ctx context.Context, uri string) (Connection, error) {
		dialTimeout := timeout
		if deadline, ok := ctx.Deadline(); ok {
			if remaining := time.Until(deadline); dialTimeout <= 0 || remaining < dialTimeout {
				dialTimeout = remaining
			}
		}
		if dialTimeout <= 0 {
			return nil, context.DeadlineExceeded
		}

		conn, err := amqp.DialConfig(uri, amqp.Config{
			Locale:     "en_US",
			Properties: amqp.Table{"connection_name": appName},
			Dial:       amqp.DefaultDial(dialTimeout),
		})
		if err != nil {
			return nil, err
		}

		return &amqpConnection{conn: conn}, nil
	}
}

// RabbitMQ owns one connection and one channel. It is not safe for
// concurrent use and is meant to live for a single publish.
type RabbitMQ struct {
	conn    Connection
	Channel Channel
}

func NewRabbitMQ(ctx context.Context, dial Dialer, uri string) (*RabbitMQ, error) {
	conn, err := dial(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	rmq := &RabbitMQ{
		conn:    conn,
		Channel: ch,
	}

	return rmq, nil
}

// Close closes the channel, then the connection. Both are attempted even if
// the first fails.
func (r *RabbitMQ) Close() error {
	var errs []error
	if r.Channel != nil {
		if err := r.Channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DeclareDirectExchange declares a durable direct exchange. Repeating the
// declaration with the same arguments is a no-op on the broker.
func (r *RabbitMQ) DeclareDirectExchange(name string) error {
	if err := r.Channel.ExchangeDeclare(
		name,               // name
		ExchangeKindDirect, // kind
		true,               // durable
		false,              // auto-deleted
		false,              // internal
		false,              // no-wait
		nil,                // arguments
	); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", name, err)
	}
	return nil
}

// PublishPersistent sends body to exchange under routingKey with persistent
// delivery mode. Fields already set on msg (MessageId, Headers, ...) are kept.
func (r *RabbitMQ) PublishPersistent(ctx context.Context, exchange, routingKey string, body []byte, msg amqp.Publishing) error {
	msg.DeliveryMode = amqp.Persistent
	msg.Body = body
	if msg.ContentType == "" {
		msg.ContentType = ContentTypeJSON
	}

	if err := r.Channel.PublishWithContext(
		ctx,
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		msg,
	); err != nil {
		return fmt.Errorf("failed to publish to %s/%s: %w", exchange, routingKey, err)
	}
	return nil
}
