package messaging

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/spec-kit/complaint-service/internal/domain"
)

var errMalformedPayload = errors.New("payload is not valid JSON")

// decodeIncident reads a delivery body. A non-nil error means the bytes are not
// JSON at all and the delivery goes through the retry path. A non-empty reason
// means the document parsed but can never become an incident.
//
// ticketId and lineNumber accept JSON numbers and keep their literal text.
// A non-string description or createdAt is dropped, so OTHER without a string
// description fails validation.
func decodeIncident(body []byte) (domain.IncidentReported, string, error) {
	var event domain.IncidentReported
	if !json.Valid(body) {
		return event, "", errMalformedPayload
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return event, "", err
	}
	fields, ok := doc.(map[string]any)
	if !ok {
		return event, "payload is not a JSON object", nil
	}

	if event.TicketID, ok = scalarString(fields["ticketId"]); !ok {
		return event, "ticketId must be a string", nil
	}
	if event.LineNumber, ok = scalarString(fields["lineNumber"]); !ok {
		return event, "lineNumber must be a string", nil
	}

	switch t := fields["type"].(type) {
	case nil:
	case string:
		event.Type = domain.IncidentType(t)
	default:
		return event, "incident type must be a string", nil
	}

	event.Description, _ = fields["description"].(string)
	event.CreatedAt, _ = fields["createdAt"].(string)
	return event, "", nil
}

func scalarString(v any) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "", true
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	default:
		return "", false
	}
}
