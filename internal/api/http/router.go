package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
)

// ProducerRoutes bundles the intake API handlers.
type ProducerRoutes struct {
	Health     *handlers.HealthHandler
	Complaints *handlers.ComplaintsHandler
}

// RegisterProducerRoutes wires the intake API.
func RegisterProducerRoutes(app *fiber.App, routes ProducerRoutes) {
	app.Get("/health", routes.Health.Health)
	app.Get("/health/live", routes.Health.Live)

	app.Post("/complaints", routes.Complaints.Create)
}

// ConsumerRoutes bundles the consumer ops server handlers.
type ConsumerRoutes struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Incidents      *handlers.IncidentsHandler
	Metrics        *handlers.MetricsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterConsumerRoutes wires the consumer ops server.
func RegisterConsumerRoutes(app *fiber.App, routes ConsumerRoutes) {
	app.Get("/health", routes.Health.Health)
	app.Get("/health/live", routes.Health.Live)
	app.Get("/health/ready", routes.Health.Ready)

	app.Post("/auth/token", routes.Auth.IssueToken)

	requireOperator := routes.AuthMiddleware.Handle
	app.Get("/incidents/:ticketId", requireOperator, routes.Incidents.Get)
	app.Get("/metrics", requireOperator, routes.Metrics.Get)
}
