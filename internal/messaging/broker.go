// Package messaging owns the RabbitMQ connection, the exchange/queue topology,
// incident publishing and the consumer-side delivery handling.
package messaging

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the slice of an AMQP channel the services use.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Confirm(noWait bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Cancel(consumer string, noWait bool) error
	// PublishConfirmed publishes msg and reports whether the broker accepted it.
	// On a channel without publisher confirms it reports true once the frame is written.
	PublishConfirmed(ctx context.Context, exchange, key string, msg amqp.Publishing) (bool, error)
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	Close() error
}

// Connection is a broker connection able to open channels.
type Connection interface {
	Channel() (Channel, error)
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	Close() error
}

// Dialer opens a Connection to url.
type Dialer func(url string) (Connection, error)

// DialAMQP is the production Dialer backed by amqp091-go.
func DialAMQP(url string) (Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return &amqpConnection{Connection: conn}, nil
}

type amqpConnection struct {
	*amqp.Connection
}

func (c *amqpConnection) Channel() (Channel, error) {
	ch, err := c.Connection.Channel()
	if err != nil {
		return nil, err
	}
	return &amqpChannel{Channel: ch}, nil
}

type amqpChannel struct {
	*amqp.Channel
}

func (c *amqpChannel) PublishConfirmed(ctx context.Context, exchange, key string, msg amqp.Publishing) (bool, error) {
	confirmation, err := c.Channel.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
	if err != nil {
		return false, err
	}
	if confirmation == nil {
		return true, nil
	}
	return confirmation.WaitContext(ctx)
}
