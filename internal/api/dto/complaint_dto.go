package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// CreateComplaintRequest payload.
type CreateComplaintRequest struct {
	LineNumber   string  `json:"lineNumber"`
	Email        string  `json:"email"`
	IncidentType string  `json:"incidentType"`
	Description  *string `json:"description"`
}

// TicketResponse is returned once a complaint has been accepted.
type TicketResponse struct {
	TicketID     string                `json:"ticketId"`
	LineNumber   string                `json:"lineNumber"`
	Email        string                `json:"email"`
	IncidentType domain.IncidentType   `json:"incidentType"`
	Description  *string               `json:"description"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	CreatedAt    time.Time             `json:"createdAt"`
}

func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		TicketID:     t.TicketID,
		LineNumber:   t.LineNumber,
		Email:        t.Email,
		IncidentType: t.IncidentType,
		Description:  t.Description,
		Status:       t.Status,
		Priority:     t.Priority,
		CreatedAt:    t.CreatedAt,
	}
}
