package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// IncidentType is the closed set of complaint categories.
type IncidentType string

const (
	IncidentTypeNoService           IncidentType = "NO_SERVICE"
	IncidentTypeIntermittentService IncidentType = "INTERMITTENT_SERVICE"
	IncidentTypeSlowConnection      IncidentType = "SLOW_CONNECTION"
	IncidentTypeRouterIssue         IncidentType = "ROUTER_ISSUE"
	IncidentTypeBillingQuestion     IncidentType = "BILLING_QUESTION"
	IncidentTypeOther               IncidentType = "OTHER"
)

// IncidentTypes lists every valid incident type in declaration order.
var IncidentTypes = []IncidentType{
	IncidentTypeNoService,
	IncidentTypeIntermittentService,
	IncidentTypeSlowConnection,
	IncidentTypeRouterIssue,
	IncidentTypeBillingQuestion,
	IncidentTypeOther,
}

// IsValid reports whether t belongs to the closed type set.
func (t IncidentType) IsValid() bool {
	for _, known := range IncidentTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t IncidentType) String() string {
	return string(t)
}

// UnmarshalJSON accepts any JSON value. Non-string values are kept verbatim so
// that they fail IsValid instead of failing the whole decode.
func (t *IncidentType) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*t = IncidentType(b)
		return nil
	}
	*t = IncidentType(s)
	return nil
}

// IncidentReported is the event payload published by the producer.
type IncidentReported struct {
	TicketID    string       `json:"ticketId"`
	LineNumber  string       `json:"lineNumber"`
	Type        IncidentType `json:"type"`
	Description string       `json:"description,omitempty"`
	CreatedAt   string       `json:"createdAt"`
}

// NewIncidentReported builds the wire payload for a freshly created ticket.
func NewIncidentReported(ticket *Ticket) IncidentReported {
	payload := IncidentReported{
		TicketID:   ticket.TicketID,
		LineNumber: ticket.LineNumber,
		Type:       ticket.IncidentType,
		CreatedAt:  ticket.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if ticket.Description != nil {
		payload.Description = *ticket.Description
	}
	return payload
}

// RequiresDescription reports whether the payload is missing a mandatory description.
func (e IncidentReported) RequiresDescription() bool {
	return e.Type == IncidentTypeOther && strings.TrimSpace(e.Description) == ""
}

// Incident is the consumer-enriched record that gets persisted.
type Incident struct {
	TicketID    string         `json:"ticketId"`
	LineNumber  string         `json:"lineNumber"`
	Type        IncidentType   `json:"type"`
	Description string         `json:"description,omitempty"`
	Priority    TicketPriority `json:"priority"`
	Status      TicketStatus   `json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	ProcessedAt time.Time      `json:"processedAt"`
}

var createdAtLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// ParseCreatedAt parses the producer timestamp. Unparseable values yield the zero time.
func ParseCreatedAt(value string) time.Time {
	for _, layout := range createdAtLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return time.Time{}
}
