package messaging

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/classifier"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
)

// Outcome is the terminal state of a single delivery.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeAcked
	OutcomeRequeued
	OutcomeDeadLettered
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAcked:
		return "acked"
	case OutcomeRequeued:
		return "requeued"
	case OutcomeDeadLettered:
		return "dead-lettered"
	default:
		return "ignored"
	}
}

// MessageHandler drives each delivery through parse, validate, classify,
// persist and settle. Every non-nil delivery ends in exactly one ack or nack.
type MessageHandler struct {
	repo       repository.IncidentRepository
	classifier *classifier.Classifier
	metrics    *observability.PipelineMetrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewMessageHandler wires a handler. A nil classifier uses the default rules.
func NewMessageHandler(repo repository.IncidentRepository, c *classifier.Classifier, metrics *observability.PipelineMetrics, logger *zap.Logger) *MessageHandler {
	if c == nil {
		c = classifier.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageHandler{
		repo:       repo,
		classifier: c,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// settleState records the broker settlement as soon as it is sent, so a panic
// raised afterwards neither settles the delivery twice nor hides the outcome.
type settleState struct {
	done    bool
	outcome Outcome
}

func (s *settleState) mark(o Outcome) {
	s.done = true
	s.outcome = o
}

// Handle processes one delivery. A nil delivery signals consumer cancellation
// and is ignored.
func (h *MessageHandler) Handle(ctx context.Context, d *amqp.Delivery) (outcome Outcome) {
	if d == nil {
		return OutcomeIgnored
	}

	log := observability.WithCorrelation(h.logger, d.CorrelationId)

	st := &settleState{}
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while handling message", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			if !st.done {
				h.retryOrDeadLetter(d, log, st, fmt.Errorf("panic: %v", r))
			}
			outcome = st.outcome
		}
	}()

	log.Info("message received", zap.Int("body_bytes", len(d.Body)), zap.Bool("redelivered", d.Redelivered))

	event, reason, err := decodeIncident(d.Body)
	if err != nil {
		return h.retryOrDeadLetter(d, log, st, fmt.Errorf("decode payload: %w", err))
	}
	log = observability.WithTicket(log, event.TicketID)

	if reason == "" {
		reason = invalidReason(event)
	}
	if reason != "" {
		return h.reject(d, log, st, reason, event.Type)
	}

	incident := h.classifier.Enrich(event, h.now().UTC())
	if _, err := h.repo.Save(ctx, incident); err != nil {
		return h.retryOrDeadLetter(d, log, st, fmt.Errorf("save incident: %w", err))
	}

	err = d.Ack(false)
	st.mark(OutcomeAcked)
	if err != nil {
		log.Error("failed to ack message", zap.Error(err))
	}
	h.metrics.IncProcessed()
	log.Info("incident processed",
		zap.String("type", incident.Type.String()),
		zap.String("priority", string(incident.Priority)),
		zap.String("status", string(incident.Status)),
	)
	return OutcomeAcked
}

func invalidReason(event domain.IncidentReported) string {
	switch {
	case event.Type == "":
		return "missing incident type"
	case !event.Type.IsValid():
		return "invalid incident type"
	case event.RequiresDescription():
		return "description is required for OTHER incidents"
	}
	return ""
}

// reject dead-letters a structurally invalid payload without retrying it.
func (h *MessageHandler) reject(d *amqp.Delivery, log *zap.Logger, st *settleState, reason string, t domain.IncidentType) Outcome {
	err := d.Nack(false, false)
	st.mark(OutcomeDeadLettered)
	if err != nil {
		log.Error("failed to nack message", zap.Error(err))
	}
	h.metrics.IncRejected()
	log.Warn("message rejected", zap.String("reason", reason), zap.String("type", string(t)))
	return OutcomeDeadLettered
}

// retryOrDeadLetter requeues while the broker-reported retry count is below
// MaxRetries. Requeued deliveries gain no x-death entry, so the bound depends
// on x-death from dead-letter round trips or a producer-set x-retry-count.
func (h *MessageHandler) retryOrDeadLetter(d *amqp.Delivery, log *zap.Logger, st *settleState, cause error) Outcome {
	retryCount := RetryCount(d.Headers)

	if retryCount < MaxRetries {
		err := d.Nack(false, true)
		st.mark(OutcomeRequeued)
		if err != nil {
			log.Error("failed to nack message", zap.Error(err))
		}
		h.metrics.IncRetried()
		log.Warn("message requeued for retry",
			zap.Error(cause),
			zap.Int("retry_count", retryCount),
			zap.Int("max_retries", MaxRetries),
		)
		return OutcomeRequeued
	}

	err := d.Nack(false, false)
	st.mark(OutcomeDeadLettered)
	if err != nil {
		log.Error("failed to nack message", zap.Error(err))
	}
	h.metrics.IncRejected()
	log.Error("message dead-lettered",
		zap.Error(cause),
		zap.Int("retry_count", retryCount),
		zap.Int("max_retries", MaxRetries),
	)
	return OutcomeDeadLettered
}
