package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/observability"
)

// MetricsHandler serves the in-memory counters.
type MetricsHandler struct {
	pipeline *observability.PipelineMetrics
	http     *observability.Metrics
}

func NewMetricsHandler(pipeline *observability.PipelineMetrics, httpMetrics *observability.Metrics) *MetricsHandler {
	return &MetricsHandler{pipeline: pipeline, http: httpMetrics}
}

// Get GET /metrics.
func (h *MetricsHandler) Get(c *fiber.Ctx) error {
	return c.JSON(dto.MetricsResponse{
		Pipeline:     h.pipeline.Snapshot(),
		HTTPRequests: h.http.Requests(),
		HTTPErrors:   h.http.Errors(),
	})
}
