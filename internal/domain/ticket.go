package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets and incidents.
type TicketStatus string

const (
	TicketStatusReceived   TicketStatus = "RECEIVED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
)

// TicketPriority enumerates urgency levels assigned by the classifier.
type TicketPriority string

const (
	TicketPriorityHigh    TicketPriority = "HIGH"
	TicketPriorityMedium  TicketPriority = "MEDIUM"
	TicketPriorityLow     TicketPriority = "LOW"
	TicketPriorityPending TicketPriority = "PENDING"
)

// IsValid reports whether p is a known priority.
func (p TicketPriority) IsValid() bool {
	switch p {
	case TicketPriorityHigh, TicketPriorityMedium, TicketPriorityLow, TicketPriorityPending:
		return true
	}
	return false
}

// Ticket is the intake record created by the producer before publishing.
// Priority and status are placeholders until the consumer classifies it.
type Ticket struct {
	TicketID     string
	LineNumber   string
	Email        string
	IncidentType IncidentType
	Description  *string
	Status       TicketStatus
	Priority     TicketPriority
	CreatedAt    time.Time
}
