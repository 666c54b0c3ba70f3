package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/observability"
)

var (
	// ErrChannelUnavailable is returned when no broker channel is open.
	ErrChannelUnavailable = errors.New("broker channel unavailable")
	// ErrPublishNotConfirmed is returned when the broker nacks a publish.
	ErrPublishNotConfirmed = errors.New("publish not confirmed by broker")
)

// ChannelProvider hands out the current channel, or nil when disconnected.
// ConnectionManager implements it.
type ChannelProvider interface {
	Channel() Channel
}

// IncidentPublisher publishes the incident-reported event for a new ticket.
type IncidentPublisher interface {
	PublishIncidentReported(ctx context.Context, ticket *domain.Ticket) error
}

// AMQPPublisher publishes incident events to the topic exchange.
type AMQPPublisher struct {
	channels   ChannelProvider
	exchange   string
	routingKey string
	logger     *zap.Logger
}

func NewAMQPPublisher(channels ChannelProvider, exchange, routingKey string, logger *zap.Logger) *AMQPPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AMQPPublisher{channels: channels, exchange: exchange, routingKey: routingKey, logger: logger}
}

func (p *AMQPPublisher) PublishIncidentReported(ctx context.Context, ticket *domain.Ticket) error {
	ch := p.channels.Channel()
	if ch == nil {
		return ErrChannelUnavailable
	}

	body, err := json.Marshal(domain.NewIncidentReported(ticket))
	if err != nil {
		return fmt.Errorf("encode incident %s: %w", ticket.TicketID, err)
	}

	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		CorrelationId: ticket.TicketID,
		MessageId:     ticket.TicketID,
		Timestamp:     ticket.CreatedAt,
		Type:          "incident.reported",
		Body:          body,
	}

	acked, err := ch.PublishConfirmed(ctx, p.exchange, p.routingKey, msg)
	if err != nil {
		return fmt.Errorf("publish incident %s: %w", ticket.TicketID, err)
	}
	if !acked {
		return fmt.Errorf("publish incident %s: %w", ticket.TicketID, ErrPublishNotConfirmed)
	}

	observability.WithTicket(observability.WithCorrelation(p.logger, ticket.TicketID), ticket.TicketID).
		Info("incident published", zap.String("routing_key", p.routingKey))
	return nil
}
