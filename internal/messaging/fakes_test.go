package messaging

import (
	"context"
	"errors"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

type call struct {
	Method string
	Args   []any
}

type fakeChannel struct {
	mu         sync.Mutex
	calls      []call
	failOn     string
	published  []amqp.Publishing
	publishAck bool
	publishErr error
	closeErr   error
	closed     bool
	notify     []chan *amqp.Error
	deliveries chan amqp.Delivery
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{publishAck: true, deliveries: make(chan amqp.Delivery, 16)}
}

func (c *fakeChannel) record(method string, args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call{Method: method, Args: args})
	if c.failOn == method {
		return errors.New(method + " failed")
	}
	return nil
}

func (c *fakeChannel) methods() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.calls))
	for _, cl := range c.calls {
		out = append(out, cl.Method)
	}
	return out
}

func (c *fakeChannel) callsOf(method string) []call {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []call
	for _, cl := range c.calls {
		if cl.Method == method {
			out = append(out, cl)
		}
	}
	return out
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return c.record("ExchangeDeclare", name, kind, durable)
}

func (c *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	return amqp.Queue{Name: name}, c.record("QueueDeclare", name, durable, args)
}

func (c *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	return c.record("QueueBind", name, key, exchange)
}

func (c *fakeChannel) Qos(prefetchCount, prefetchSize int, global bool) error {
	return c.record("Qos", prefetchCount)
}

func (c *fakeChannel) Confirm(noWait bool) error {
	return c.record("Confirm")
}

func (c *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	if err := c.record("Consume", queue, autoAck); err != nil {
		return nil, err
	}
	return c.deliveries, nil
}

func (c *fakeChannel) Cancel(consumer string, noWait bool) error {
	return c.record("Cancel", consumer)
}

func (c *fakeChannel) PublishConfirmed(ctx context.Context, exchange, key string, msg amqp.Publishing) (bool, error) {
	if err := c.record("Publish", exchange, key); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr != nil {
		return false, c.publishErr
	}
	c.published = append(c.published, msg)
	return c.publishAck, nil
}

func (c *fakeChannel) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notify = append(c.notify, receiver)
	return receiver
}

// breakWith simulates the broker closing the channel.
func (c *fakeChannel) breakWith(err *amqp.Error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range c.notify {
		n <- err
		close(n)
	}
	c.notify = nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	_ = c.record("Close")
	return c.closeErr
}

func (c *fakeChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type fakeConnection struct {
	mu       sync.Mutex
	channel  *fakeChannel
	chanErr  error
	closeErr error
	closed   bool
	notify   []chan *amqp.Error
}

func (c *fakeConnection) Channel() (Channel, error) {
	if c.chanErr != nil {
		return nil, c.chanErr
	}
	return c.channel, nil
}

func (c *fakeConnection) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notify = append(c.notify, receiver)
	return receiver
}

func (c *fakeConnection) breakWith(err *amqp.Error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range c.notify {
		n <- err
		close(n)
	}
	c.notify = nil
}

func (c *fakeConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return c.closeErr
}

func (c *fakeConnection) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// fakeDialer hands out fresh connections and counts dials.
type fakeDialer struct {
	mu    sync.Mutex
	err   error
	dials int
	conns []*fakeConnection
}

func (d *fakeDialer) Dial(string) (Connection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	conn := &fakeConnection{channel: newFakeChannel()}
	d.conns = append(d.conns, conn)
	return conn, nil
}

func (d *fakeDialer) last() *fakeConnection {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[len(d.conns)-1]
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

type settlement struct {
	Kind     string
	Multiple bool
	Requeue  bool
}

// fakeAcknowledger records ack/nack calls made through amqp.Delivery.
type fakeAcknowledger struct {
	mu      sync.Mutex
	settled []settlement
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settled = append(a.settled, settlement{Kind: "ack", Multiple: multiple})
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settled = append(a.settled, settlement{Kind: "nack", Multiple: multiple, Requeue: requeue})
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settled = append(a.settled, settlement{Kind: "reject", Requeue: requeue})
	return nil
}

func (a *fakeAcknowledger) all() []settlement {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]settlement(nil), a.settled...)
}
