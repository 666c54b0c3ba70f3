package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/service"
)

// IncidentsHandler exposes processed incidents to operators.
type IncidentsHandler struct {
	service *service.IncidentService
}

func NewIncidentsHandler(incidentService *service.IncidentService) *IncidentsHandler {
	return &IncidentsHandler{service: incidentService}
}

// Get GET /incidents/:ticketId.
func (h *IncidentsHandler) Get(c *fiber.Ctx) error {
	incident, err := h.service.GetIncident(c.UserContext(), c.Params("ticketId"))
	if err != nil {
		return err
	}
	return c.JSON(incident)
}
