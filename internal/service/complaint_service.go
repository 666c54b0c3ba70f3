package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/messaging"
	"github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ComplaintInput describes a complaint submitted through the intake API.
type ComplaintInput struct {
	LineNumber   string
	Email        string
	IncidentType string
	Description  *string
}

// ComplaintService turns validated complaints into published incident events.
type ComplaintService struct {
	publisher messaging.IncidentPublisher
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// NewComplaintService constructs the service.
func NewComplaintService(publisher messaging.IncidentPublisher, logger *zap.Logger) *ComplaintService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplaintService{
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// ValidateComplaint returns a validation error listing every offending field.
func ValidateComplaint(input ComplaintInput) error {
	fields := map[string]string{}

	if strings.TrimSpace(input.LineNumber) == "" {
		fields["lineNumber"] = "lineNumber is required"
	}

	email := strings.TrimSpace(input.Email)
	switch {
	case email == "":
		fields["email"] = "email is required"
	case !emailPattern.MatchString(email):
		fields["email"] = "email must be a valid address"
	}

	incidentType := domain.IncidentType(strings.TrimSpace(input.IncidentType))
	switch {
	case incidentType == "":
		fields["incidentType"] = "incidentType is required"
	case !incidentType.IsValid():
		fields["incidentType"] = "incidentType must be one of " + joinTypes()
	case incidentType == domain.IncidentTypeOther && blank(input.Description):
		fields["description"] = "description is required when incidentType is OTHER"
	}

	if len(fields) == 0 {
		return nil
	}
	return errorutil.NewValidationError("the complaint is invalid", map[string]any{"fields": fields})
}

// CreateComplaint validates input, builds the ticket and publishes it.
// The ticket is only returned once the broker has accepted the event.
func (s *ComplaintService) CreateComplaint(ctx context.Context, input ComplaintInput) (*domain.Ticket, error) {
	if err := ValidateComplaint(input); err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		TicketID:     s.newID(),
		LineNumber:   strings.TrimSpace(input.LineNumber),
		Email:        strings.TrimSpace(input.Email),
		IncidentType: domain.IncidentType(strings.TrimSpace(input.IncidentType)),
		Status:       domain.TicketStatusReceived,
		Priority:     domain.TicketPriorityPending,
		CreatedAt:    s.now().UTC(),
	}
	if !blank(input.Description) {
		desc := strings.TrimSpace(*input.Description)
		ticket.Description = &desc
	}

	if err := s.publisher.PublishIncidentReported(ctx, ticket); err != nil {
		s.logger.Error("failed to publish incident",
			zap.String("ticket_id", ticket.TicketID),
			zap.Error(err))
		return nil, errorutil.NewMessagingError(ticket.TicketID, err)
	}

	s.logger.Info("complaint accepted",
		zap.String("ticket_id", ticket.TicketID),
		zap.String("type", ticket.IncidentType.String()))
	return ticket, nil
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func joinTypes() string {
	names := make([]string, len(domain.IncidentTypes))
	for i, t := range domain.IncidentTypes {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}
