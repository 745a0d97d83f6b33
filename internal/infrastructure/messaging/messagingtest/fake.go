// Package messagingtest provides an in-memory broker double for tests of
// code built on the messaging package.
package messagingtest

import (
	"context"
	"sync"

	"github.com/lifetravel/endpoint/internal/infrastructure/messaging"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Declaration struct {
	Name       string
	Kind       string
	Durable    bool
	AutoDelete bool
	Internal   bool
	NoWait     bool
}

type Publication struct {
	Exchange   string
	RoutingKey string
	Mandatory  bool
	Immediate  bool
	Msg        amqp.Publishing
}

// Broker records every dial, declaration and publication. Error fields make
// the matching step fail.
type Broker struct {
	mu sync.Mutex

	DialErr    error
	ChannelErr error
	DeclareErr error
	PublishErr error

	Dials        []string
	Declarations []Declaration
	Publications []Publication
	OpenConns    int
	OpenChannels int
}

func (b *Broker) Dialer() messaging.Dialer {
	return func(ctx context.Context, uri string) (messaging.Connection, error) {
		b.mu.Lock()
		defer b.mu.Unlock()

		b.Dials = append(b.Dials, uri)
		if b.DialErr != nil {
			return nil, b.DialErr
		}
		b.OpenConns++
		return &conn{broker: b}, nil
	}
}

// SetPublishErr changes the publish failure for subsequent calls.
func (b *Broker) SetPublishErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.PublishErr = err
}

// SetDialErr changes the dial failure for subsequent calls.
func (b *Broker) SetDialErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.DialErr = err
}

func (b *Broker) Published() []Publication {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Publication, len(b.Publications))
	copy(out, b.Publications)
	return out
}

func (b *Broker) Open() (conns, channels int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.OpenConns, b.OpenChannels
}

func (b *Broker) DialCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Dials)
}

type conn struct {
	broker *Broker
	closed bool
}

func (c *conn) Channel() (messaging.Channel, error) {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()

	if c.broker.ChannelErr != nil {
		return nil, c.broker.ChannelErr
	}
	c.broker.OpenChannels++
	return &channel{broker: c.broker}, nil
}

func (c *conn) Close() error {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()

	if c.closed {
		return amqp.ErrClosed
	}
	c.closed = true
	c.broker.OpenConns--
	return nil
}

type channel struct {
	broker *Broker
	closed bool
}

func (ch *channel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, _ amqp.Table) error {
	ch.broker.mu.Lock()
	defer ch.broker.mu.Unlock()

	if ch.broker.DeclareErr != nil {
		return ch.broker.DeclareErr
	}
	ch.broker.Declarations = append(ch.broker.Declarations, Declaration{
		Name:       name,
		Kind:       kind,
		Durable:    durable,
		AutoDelete: autoDelete,
		Internal:   internal,
		NoWait:     noWait,
	})
	return nil
}

func (ch *channel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ch.broker.mu.Lock()
	defer ch.broker.mu.Unlock()

	if ch.broker.PublishErr != nil {
		return ch.broker.PublishErr
	}
	ch.broker.Publications = append(ch.broker.Publications, Publication{
		Exchange:   exchange,
		RoutingKey: key,
		Mandatory:  mandatory,
		Immediate:  immediate,
		Msg:        msg,
	})
	return nil
}

func (ch *channel) Close() error {
	ch.broker.mu.Lock()
	defer ch.broker.mu.Unlock()

	if ch.closed {
		return amqp.ErrClosed
	}
	ch.closed = true
	ch.broker.OpenChannels--
	return nil
}
