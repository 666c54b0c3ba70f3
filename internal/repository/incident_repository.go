package repository

import (
	"context"
	"errors"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// ErrNotFound is returned when no incident exists for a ticket id.
var ErrNotFound = errors.New("incident not found")

// IncidentRepository persists enriched incidents keyed by ticket id.
// Save is an upsert: a second save with the same ticket id replaces the first.
type IncidentRepository interface {
	Save(ctx context.Context, incident *domain.Incident) (*domain.Incident, error)
	FindByID(ctx context.Context, ticketID string) (*domain.Incident, error)
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}
