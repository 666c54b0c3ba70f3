package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/observability"
)

// ConnectionState reports broker connectivity. messaging.ConnectionManager implements it.
type ConnectionState interface {
	IsConnected() bool
}

// ReadinessChecker checks a backing dependency such as the incident store.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	broker      ConnectionState
	pipeline    *observability.PipelineMetrics
	store       ReadinessChecker
	now         func() time.Time
}

// NewHealthHandler returns a new handler instance. pipeline and store are
// optional; the producer passes neither.
func NewHealthHandler(serviceName, version string, broker ConnectionState, pipeline *observability.PipelineMetrics, store ReadinessChecker) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		broker:      broker,
		pipeline:    pipeline,
		store:       store,
		now:         time.Now,
	}
}

// Health GET /health.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	connected := h.broker.IsConnected()
	resp := dto.HealthResponse{
		Status:    "ok",
		Service:   h.serviceName,
		Connected: connected,
		Timestamp: h.now().UTC(),
	}
	if h.pipeline != nil {
		snapshot := h.pipeline.Snapshot()
		resp.Metrics = &snapshot
	}
	if !connected {
		resp.Status = "disconnected"
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	if h.broker.IsConnected() {
		depStatus["rabbitmq"] = "ok"
	} else {
		depStatus["rabbitmq"] = "disconnected"
		ready = false
	}

	if h.store != nil {
		if err := h.store.Ready(ctx); err != nil {
			depStatus["store"] = err.Error()
			ready = false
		} else {
			depStatus["store"] = "ok"
		}
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}
