// Package worker runs the long-lived consumer loop of the consumer service.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/backoff"
	"github.com/spec-kit/complaint-service/internal/messaging"
)

// Broker is the connection owner the worker drives. messaging.ConnectionManager implements it.
type Broker interface {
	Connect(ctx context.Context) error
	Channel() messaging.Channel
	Close(ctx context.Context)
}

// DeliveryHandler settles one delivery.
type DeliveryHandler interface {
	Handle(ctx context.Context, d *amqp.Delivery) messaging.Outcome
}

// ConsumerWorker connects with backoff, consumes the incident queue and hands
// each delivery to the handler on its own goroutine. Concurrency is bounded by
// the channel prefetch.
type ConsumerWorker struct {
	broker  Broker
	handler DeliveryHandler
	backoff *backoff.Scheduler
	queue   string
	tag     string
	logger  *zap.Logger

	ctx        context.Context
	handlerCtx context.Context
	cancel     context.CancelFunc

	mu       sync.Mutex
	stopped  bool
	loops    sync.WaitGroup
	inflight sync.WaitGroup
}

// NewConsumerWorker builds a worker. An empty consumerTag gets a generated one
// so the consumer can be cancelled by name on shutdown.
func NewConsumerWorker(broker Broker, handler DeliveryHandler, scheduler *backoff.Scheduler, queue, consumerTag string, logger *zap.Logger) *ConsumerWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if consumerTag == "" {
		consumerTag = "complaints-consumer-" + uuid.NewString()
	}
	return &ConsumerWorker{
		broker:  broker,
		handler: handler,
		backoff: scheduler,
		queue:   queue,
		tag:     consumerTag,
		logger:  logger,
	}
}

// Start begins the first connection attempt and returns without blocking.
func (w *ConsumerWorker) Start(ctx context.Context) {
	w.ctx, w.cancel = context.WithCancel(ctx)
	// in-flight handlers finish their store write even while shutting down
	w.handlerCtx = context.WithoutCancel(ctx)
	w.start()
}

func (w *ConsumerWorker) isStopped() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopped
}

func (w *ConsumerWorker) start() {
	if w.isStopped() {
		return
	}

	if err := w.broker.Connect(w.ctx); err != nil {
		w.logger.Error("failed to start consumer", zap.Error(err))
		w.backoff.ScheduleRetry(w.start)
		return
	}
	w.backoff.Reset()

	ch := w.broker.Channel()
	if ch == nil {
		w.logger.Warn("channel lost right after connect")
		w.backoff.ScheduleRetry(w.start)
		return
	}

	deliveries, err := ch.Consume(w.queue, w.tag, false, false, false, false, nil)
	if err != nil {
		w.logger.Error("failed to start consuming", zap.String("queue", w.queue), zap.Error(err))
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		w.broker.Close(closeCtx)
		cancel()
		w.backoff.ScheduleRetry(w.start)
		return
	}

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.loops.Add(1)
	w.mu.Unlock()

	w.logger.Info("consumer started", zap.String("queue", w.queue), zap.String("consumer_tag", w.tag))
	go w.dispatch(deliveries)
}

func (w *ConsumerWorker) dispatch(deliveries <-chan amqp.Delivery) {
	defer w.loops.Done()

	for d := range deliveries {
		w.inflight.Add(1)
		go func(d amqp.Delivery) {
			defer w.inflight.Done()
			w.handler.Handle(w.handlerCtx, &d)
		}(d)
	}

	if w.isStopped() {
		return
	}
	w.logger.Warn("delivery stream closed, scheduling reconnect")
	w.backoff.ScheduleRetry(w.start)
}

// Shutdown stops consuming, waits for in-flight handlers until ctx ends and
// then closes the broker connection. Unsettled deliveries return to the queue.
func (w *ConsumerWorker) Shutdown(ctx context.Context) {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}
	w.backoff.Stop()

	if ch := w.broker.Channel(); ch != nil {
		if err := ch.Cancel(w.tag, false); err != nil {
			w.logger.Warn("failed to cancel consumer", zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		w.loops.Wait()
		w.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("in-flight messages drained")
	case <-ctx.Done():
		w.logger.Warn("shutdown deadline reached with messages in flight")
	}

	w.broker.Close(ctx)
}
