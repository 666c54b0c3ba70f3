package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/classifier"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/messaging"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
)

// loopbackChannel records publishes so they can be replayed as deliveries.
type loopbackChannel struct {
	messaging.Channel

	mu        sync.Mutex
	published []amqp.Publishing
	nack      bool
}

func (c *loopbackChannel) PublishConfirmed(_ context.Context, _, _ string, msg amqp.Publishing) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nack {
		return false, nil
	}
	c.published = append(c.published, msg)
	return true, nil
}

type brokerState struct {
	ch        messaging.Channel
	connected bool
}

func (b *brokerState) Channel() messaging.Channel { return b.ch }
func (b *brokerState) IsConnected() bool         { return b.connected }

type noopAcknowledger struct{}

func (noopAcknowledger) Ack(uint64, bool) error        { return nil }
func (noopAcknowledger) Nack(uint64, bool, bool) error { return nil }
func (noopAcknowledger) Reject(uint64, bool) error     { return nil }

func newProducerApp(broker *brokerState) *fiber.App {
	logger := zap.NewNop()
	app := NewApp("producer-test")
	RegisterCORS(app, config.CORSConfig{AllowedOrigins: []string{"http://localhost"}})
	RegisterMiddlewares(app, logger, observability.NewMetrics(), time.Second)

	publisher := messaging.NewAMQPPublisher(broker, "complaints.exchange", "complaint.received", logger)
	RegisterProducerRoutes(app, ProducerRoutes{
		Health:     handlers.NewHealthHandler("producer", "test", broker, nil, nil),
		Complaints: handlers.NewComplaintsHandler(service.NewComplaintService(publisher, logger)),
	})
	return app
}

type consumerFixture struct {
	app      *fiber.App
	repo     *repository.MemoryIncidentRepository
	pipeline *observability.PipelineMetrics
	authSvc  *service.AuthService
}

func newConsumerApp(t *testing.T, broker *brokerState, authCfg config.AuthConfig) consumerFixture {
	t.Helper()
	logger := zap.NewNop()
	repo := repository.NewMemoryIncidentRepository()
	pipeline := observability.NewPipelineMetrics()
	httpMetrics := observability.NewMetrics()
	authSvc := service.NewAuthService(authCfg)
	incidents := service.NewIncidentService(repo)

	app := NewApp("consumer-test")
	RegisterMiddlewares(app, logger, httpMetrics, time.Second)
	RegisterConsumerRoutes(app, ConsumerRoutes{
		Health:         handlers.NewHealthHandler("consumer", "test", broker, pipeline, incidents),
		Auth:           handlers.NewAuthHandler(authSvc),
		Incidents:      handlers.NewIncidentsHandler(incidents),
		Metrics:        handlers.NewMetricsHandler(pipeline, httpMetrics),
		AuthMiddleware: auth.NewAuthMiddleware(authSvc.TokenManager()),
	})
	return consumerFixture{app: app, repo: repo, pipeline: pipeline, authSvc: authSvc}
}

func do(t *testing.T, app *fiber.App, method, path, body string, headers map[string]string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func errorCode(body map[string]any) string {
	errObj, _ := body["error"].(map[string]any)
	code, _ := errObj["code"].(string)
	return code
}

func TestCreateComplaint_Created(t *testing.T) {
	ch := &loopbackChannel{}
	app := newProducerApp(&brokerState{ch: ch, connected: true})

	status, body := do(t, app, fiber.MethodPost, "/complaints",
		`{"lineNumber":"555-0100","email":"jane@example.com","incidentType":"SLOW_CONNECTION"}`, nil)

	require.Equal(t, fiber.StatusCreated, status)
	assert.NotEmpty(t, body["ticketId"])
	assert.Equal(t, "RECEIVED", body["status"])
	assert.Equal(t, "PENDING", body["priority"])
	assert.Nil(t, body["description"])
	require.Len(t, ch.published, 1)
	assert.Equal(t, body["ticketId"], ch.published[0].CorrelationId)
}

func TestCreateComplaint_ClientErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{"lineNumber":`, "INVALID_JSON"},
		{"other without description", `{"lineNumber":"1","email":"a@b.co","incidentType":"OTHER"}`, "VALIDATION_FAILED"},
		{"bad email", `{"lineNumber":"1","email":"nope","incidentType":"NO_SERVICE"}`, "VALIDATION_FAILED"},
		{"unknown type", `{"lineNumber":"1","email":"a@b.co","incidentType":"FLOOD"}`, "VALIDATION_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := &loopbackChannel{}
			app := newProducerApp(&brokerState{ch: ch, connected: true})

			status, body := do(t, app, fiber.MethodPost, "/complaints", tt.body, nil)

			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Equal(t, tt.code, errorCode(body))
			assert.Empty(t, ch.published)
		})
	}
}

func TestCreateComplaint_BrokerUnavailable(t *testing.T) {
	t.Run("no channel", func(t *testing.T) {
		app := newProducerApp(&brokerState{})
		status, body := do(t, app, fiber.MethodPost, "/complaints",
			`{"lineNumber":"1","email":"a@b.co","incidentType":"NO_SERVICE"}`, nil)
		assert.Equal(t, fiber.StatusServiceUnavailable, status)
		assert.Equal(t, "MESSAGING_UNAVAILABLE", errorCode(body))
	})

	t.Run("publish not confirmed", func(t *testing.T) {
		app := newProducerApp(&brokerState{ch: &loopbackChannel{nack: true}, connected: true})
		status, _ := do(t, app, fiber.MethodPost, "/complaints",
			`{"lineNumber":"1","email":"a@b.co","incidentType":"NO_SERVICE"}`, nil)
		assert.Equal(t, fiber.StatusServiceUnavailable, status)
	})
}

func TestProducerHealth(t *testing.T) {
	status, body := do(t, newProducerApp(&brokerState{connected: true}), fiber.MethodGet, "/health", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["connected"])
	assert.Nil(t, body["metrics"])

	status, body = do(t, newProducerApp(&brokerState{}), fiber.MethodGet, "/health", "", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "disconnected", body["status"])
}

func TestConsumerHealthIncludesMetrics(t *testing.T) {
	fx := newConsumerApp(t, &brokerState{connected: true}, config.AuthConfig{})
	fx.pipeline.IncProcessed()
	fx.pipeline.IncRetried()

	status, body := do(t, fx.app, fiber.MethodGet, "/health", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	metrics := body["metrics"].(map[string]any)
	assert.EqualValues(t, 1, metrics["messagesProcessed"])
	assert.EqualValues(t, 1, metrics["messagesRetried"])
	assert.EqualValues(t, 0, metrics["messagesRejected"])

	status, _ = do(t, fx.app, fiber.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestEndToEnd_NoServiceBecomesHighPriority(t *testing.T) {
	ch := &loopbackChannel{}
	broker := &brokerState{ch: ch, connected: true}
	producer := newProducerApp(broker)
	consumer := newConsumerApp(t, broker, config.AuthConfig{})

	status, created := do(t, producer, fiber.MethodPost, "/complaints",
		`{"lineNumber":"555-0199","email":"ops@example.com","incidentType":"NO_SERVICE"}`, nil)
	require.Equal(t, fiber.StatusCreated, status)
	ticketID := created["ticketId"].(string)

	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	handler := messaging.NewMessageHandler(consumer.repo, classifier.New(), consumer.pipeline, nil)
	outcome := handler.Handle(context.Background(), &amqp.Delivery{
		Acknowledger:  noopAcknowledger{},
		CorrelationId: msg.CorrelationId,
		Headers:       msg.Headers,
		Body:          msg.Body,
	})
	require.Equal(t, messaging.OutcomeAcked, outcome)

	status, incident := do(t, consumer.app, fiber.MethodGet, "/incidents/"+ticketID, "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, ticketID, incident["ticketId"])
	assert.Equal(t, "555-0199", incident["lineNumber"])
	assert.Equal(t, "NO_SERVICE", incident["type"])
	assert.Equal(t, "HIGH", incident["priority"])
	assert.Equal(t, "IN_PROGRESS", incident["status"])

	status, body := do(t, consumer.app, fiber.MethodGet, "/incidents/unknown-id", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestOperatorEndpointsRequireToken(t *testing.T) {
	hash, err := auth.HashPassword("hunter2", bcrypt.MinCost)
	require.NoError(t, err)
	fx := newConsumerApp(t, &brokerState{connected: true}, config.AuthConfig{
		JWTSecret:             "s3cret",
		AccessTokenTTLMinutes: 5,
		OperatorUsername:      "operator",
		OperatorPasswordHash:  hash,
	})

	status, _ := do(t, fx.app, fiber.MethodGet, "/metrics", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = do(t, fx.app, fiber.MethodPost, "/auth/token", `{"username":"operator","password":"wrong"}`, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, tokenBody := do(t, fx.app, fiber.MethodPost, "/auth/token", `{"username":"operator","password":"hunter2"}`, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Bearer", tokenBody["tokenType"])

	bearer := map[string]string{fiber.HeaderAuthorization: "Bearer " + tokenBody["accessToken"].(string)}
	status, metrics := do(t, fx.app, fiber.MethodGet, "/metrics", "", bearer)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, metrics, "pipeline")

	status, _ = do(t, fx.app, fiber.MethodGet, "/health", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
}
