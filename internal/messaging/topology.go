package messaging

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/spec-kit/complaint-service/internal/config"
)

// Topology names the exchanges and queues shared by producer and consumer.
type Topology struct {
	Exchange           string
	Queue              string
	RoutingKey         string
	BindingKey         string
	DeadLetterExchange string
	DeadLetterQueue    string
	Prefetch           int
}

// TopologyFromConfig maps broker settings onto a Topology.
func TopologyFromConfig(cfg config.BrokerConfig) Topology {
	return Topology{
		Exchange:           cfg.Exchange,
		Queue:              cfg.Queue,
		RoutingKey:         cfg.RoutingKey,
		BindingKey:         cfg.BindingKey,
		DeadLetterExchange: cfg.DeadLetterExchange,
		DeadLetterQueue:    cfg.DeadLetterQueue,
		Prefetch:           cfg.Prefetch,
	}
}

// Declarer prepares a freshly opened channel.
type Declarer interface {
	Declare(ch Channel) error
}

// ConsumerTopology declares the full topology including the dead-letter path.
type ConsumerTopology struct {
	Topology
}

// Declare runs, in order: DLX (fanout) + DLQ bound with an empty key, main
// topic exchange, main queue dead-lettering into the DLX, main binding, prefetch.
//
// The DLQ has no route back to the main queue, and a nack with requeue adds no
// x-death entry. The MaxRetries bound on transient failures therefore only
// takes effect when the broker supplies x-death (a message shovelled back from
// the DLQ) or the publisher sets x-retry-count.
func (t ConsumerTopology) Declare(ch Channel) error {
	if err := ch.ExchangeDeclare(t.DeadLetterExchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", t.DeadLetterExchange, err)
	}
	if _, err := ch.QueueDeclare(t.DeadLetterQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", t.DeadLetterQueue, err)
	}
	if err := ch.QueueBind(t.DeadLetterQueue, "", t.DeadLetterExchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", t.DeadLetterQueue, err)
	}
	if err := ch.ExchangeDeclare(t.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", t.Exchange, err)
	}
	args := amqp.Table{
		"x-dead-letter-exchange":    t.DeadLetterExchange,
		"x-dead-letter-routing-key": t.DeadLetterQueue,
	}
	if _, err := ch.QueueDeclare(t.Queue, true, false, false, false, args); err != nil {
		return fmt.Errorf("declare queue %s: %w", t.Queue, err)
	}
	if err := ch.QueueBind(t.Queue, t.BindingKey, t.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", t.Queue, err)
	}
	if t.Prefetch > 0 {
		if err := ch.Qos(t.Prefetch, 0, false); err != nil {
			return fmt.Errorf("set prefetch: %w", err)
		}
	}
	return nil
}

// PublisherTopology declares the main exchange and enables publisher confirms.
type PublisherTopology struct {
	Topology
}

func (t PublisherTopology) Declare(ch Channel) error {
	if err := ch.ExchangeDeclare(t.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", t.Exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		return fmt.Errorf("enable publisher confirms: %w", err)
	}
	return nil
}
