package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/backoff"
	"github.com/spec-kit/complaint-service/internal/messaging"
)

type fakeChannel struct {
	messaging.Channel

	mu         sync.Mutex
	deliveries chan amqp.Delivery
	consumeErr error
	consumed   []string
	cancelled  []string
}

func (c *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.consumeErr != nil {
		return nil, c.consumeErr
	}
	c.consumed = append(c.consumed, queue)
	return c.deliveries, nil
}

func (c *fakeChannel) Cancel(consumer string, noWait bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelled = append(c.cancelled, consumer)
	close(c.deliveries)
	return nil
}

type fakeBroker struct {
	mu          sync.Mutex
	connectErrs []error
	connects    int
	closes      int
	channel     *fakeChannel
	connected   bool
}

func (b *fakeBroker) Connect(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connects++
	if len(b.connectErrs) > 0 {
		err := b.connectErrs[0]
		b.connectErrs = b.connectErrs[1:]
		return err
	}
	b.connected = true
	return nil
}

func (b *fakeBroker) Channel() messaging.Channel {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return nil
	}
	return b.channel
}

func (b *fakeBroker) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

func (b *fakeBroker) Close(context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closes++
	b.connected = false
}

func (b *fakeBroker) stats() (connects, closes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connects, b.closes
}

// swap installs a fresh channel, as a reconnect would.
func (b *fakeBroker) swap(ch *fakeChannel) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.channel = ch
	b.connected = false
}

type recordingHandler struct {
	mu      sync.Mutex
	bodies  []string
	release chan struct{}
}

func (h *recordingHandler) Handle(_ context.Context, d *amqp.Delivery) messaging.Outcome {
	if h.release != nil {
		<-h.release
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bodies = append(h.bodies, string(d.Body))
	return messaging.OutcomeAcked
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.bodies)
}

func fastBackoff() *backoff.Scheduler {
	return backoff.New(backoff.Config{InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Factor: 2}, nil)
}

func TestConsumerWorker_RetriesConnectWithBackoff(t *testing.T) {
	broker := &fakeBroker{
		connectErrs: []error{errors.New("refused"), errors.New("refused")},
		channel:     &fakeChannel{deliveries: make(chan amqp.Delivery, 4)},
	}
	handler := &recordingHandler{}
	scheduler := fastBackoff()
	w := NewConsumerWorker(broker, handler, scheduler, "complaints.queue", "test-consumer", nil)

	w.Start(context.Background())
	require.Eventually(t, func() bool {
		connects, _ := broker.stats()
		return connects == 3
	}, time.Second, time.Millisecond)

	broker.channel.deliveries <- amqp.Delivery{Body: []byte("one")}
	require.Eventually(t, func() bool { return handler.count() == 1 }, time.Second, time.Millisecond)
	assert.Zero(t, scheduler.Attempt())

	w.Shutdown(context.Background())
	assert.Equal(t, []string{"test-consumer"}, broker.channel.cancelled)
	_, closes := broker.stats()
	assert.Equal(t, 1, closes)
}

func TestConsumerWorker_ShutdownWaitsForInFlight(t *testing.T) {
	broker := &fakeBroker{channel: &fakeChannel{deliveries: make(chan amqp.Delivery, 4)}}
	handler := &recordingHandler{release: make(chan struct{})}
	w := NewConsumerWorker(broker, handler, fastBackoff(), "q", "", nil)
	w.Start(context.Background())

	broker.channel.deliveries <- amqp.Delivery{Body: []byte("slow")}

	done := make(chan struct{})
	go func() {
		w.Shutdown(context.Background())
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("shutdown returned before the in-flight handler finished")
	case <-time.After(30 * time.Millisecond):
	}

	close(handler.release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("shutdown did not finish")
	}
	assert.Equal(t, 1, handler.count())
}

func TestConsumerWorker_ShutdownHonoursDeadline(t *testing.T) {
	broker := &fakeBroker{channel: &fakeChannel{deliveries: make(chan amqp.Delivery, 4)}}
	handler := &recordingHandler{release: make(chan struct{})}
	defer close(handler.release)
	w := NewConsumerWorker(broker, handler, fastBackoff(), "q", "", nil)
	w.Start(context.Background())
	broker.channel.deliveries <- amqp.Delivery{Body: []byte("stuck")}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	w.Shutdown(ctx)

	_, closes := broker.stats()
	assert.Equal(t, 1, closes)
}

func TestConsumerWorker_ReconnectsWhenStreamCloses(t *testing.T) {
	first := &fakeChannel{deliveries: make(chan amqp.Delivery, 4)}
	broker := &fakeBroker{channel: first}
	handler := &recordingHandler{}
	w := NewConsumerWorker(broker, handler, fastBackoff(), "q", "c", nil)
	w.Start(context.Background())

	second := &fakeChannel{deliveries: make(chan amqp.Delivery, 4)}
	broker.swap(second)
	close(first.deliveries)

	require.Eventually(t, func() bool {
		connects, _ := broker.stats()
		return connects == 2
	}, time.Second, time.Millisecond)

	second.deliveries <- amqp.Delivery{Body: []byte("after reconnect")}
	require.Eventually(t, func() bool { return handler.count() == 1 }, time.Second, time.Millisecond)

	w.Shutdown(context.Background())
}

func TestConsumerWorker_ConsumeFailureResetsConnection(t *testing.T) {
	ch := &fakeChannel{deliveries: make(chan amqp.Delivery, 1), consumeErr: errors.New("queue not found")}
	broker := &fakeBroker{channel: ch}
	w := NewConsumerWorker(broker, &recordingHandler{}, fastBackoff(), "q", "c", nil)
	w.Start(context.Background())

	require.Eventually(t, func() bool {
		_, closes := broker.stats()
		return closes >= 2
	}, time.Second, time.Millisecond)

	ch.mu.Lock()
	ch.consumeErr = nil
	ch.mu.Unlock()

	require.Eventually(t, func() bool {
		ch.mu.Lock()
		defer ch.mu.Unlock()
		return len(ch.consumed) == 1
	}, time.Second, time.Millisecond)

	w.Shutdown(context.Background())
}
