package repository

import (
	"context"
	"sync"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// MemoryIncidentRepository keeps incidents in a map. Nothing survives a restart.
type MemoryIncidentRepository struct {
	mu        sync.RWMutex
	incidents map[string]domain.Incident
}

// NewMemoryIncidentRepository instantiates an empty store.
func NewMemoryIncidentRepository() *MemoryIncidentRepository {
	return &MemoryIncidentRepository{incidents: make(map[string]domain.Incident)}
}

func (r *MemoryIncidentRepository) Save(ctx context.Context, incident *domain.Incident) (*domain.Incident, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *incident
	r.incidents[incident.TicketID] = stored
	return &stored, nil
}

func (r *MemoryIncidentRepository) FindByID(ctx context.Context, ticketID string) (*domain.Incident, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	incident, ok := r.incidents[ticketID]
	if !ok {
		return nil, ErrNotFound
	}
	return &incident, nil
}

// Count returns the number of stored incidents.
func (r *MemoryIncidentRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.incidents)
}
