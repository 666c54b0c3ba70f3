package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// IncidentService exposes stored incidents to operators.
type IncidentService struct {
	incidents repository.IncidentRepository
}

func NewIncidentService(incidents repository.IncidentRepository) *IncidentService {
	return &IncidentService{incidents: incidents}
}

// GetIncident returns the enriched incident for ticketID.
func (s *IncidentService) GetIncident(ctx context.Context, ticketID string) (*domain.Incident, error) {
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		return nil, errorutil.NewValidationError("ticketId is required", nil)
	}
	incident, err := s.incidents.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errorutil.NewNotFound("incident", map[string]any{"ticketId": ticketID})
		}
		return nil, err
	}
	return incident, nil
}

// Ready pings the store when it is backed by a remote service.
func (s *IncidentService) Ready(ctx context.Context) error {
	if pinger, ok := s.incidents.(repository.Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}
