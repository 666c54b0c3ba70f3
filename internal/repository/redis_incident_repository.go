package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// RedisIncidentRepository stores each incident as a JSON string under prefix+ticketId.
type RedisIncidentRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisIncidentRepository instantiates repository.
func NewRedisIncidentRepository(client *redis.Client, prefix string) *RedisIncidentRepository {
	if prefix == "" {
		prefix = "incident:"
	}
	return &RedisIncidentRepository{client: client, prefix: prefix}
}

func (r *RedisIncidentRepository) key(ticketID string) string {
	return r.prefix + ticketID
}

func (r *RedisIncidentRepository) Save(ctx context.Context, incident *domain.Incident) (*domain.Incident, error) {
	data, err := json.Marshal(incident)
	if err != nil {
		return nil, fmt.Errorf("encode incident %s: %w", incident.TicketID, err)
	}
	if err := r.client.Set(ctx, r.key(incident.TicketID), data, 0).Err(); err != nil {
		return nil, fmt.Errorf("store incident %s: %w", incident.TicketID, err)
	}
	return incident, nil
}

func (r *RedisIncidentRepository) FindByID(ctx context.Context, ticketID string) (*domain.Incident, error) {
	data, err := r.client.Get(ctx, r.key(ticketID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load incident %s: %w", ticketID, err)
	}
	var incident domain.Incident
	if err := json.Unmarshal(data, &incident); err != nil {
		return nil, fmt.Errorf("decode incident %s: %w", ticketID, err)
	}
	return &incident, nil
}

// Ping verifies Redis connectivity.
func (r *RedisIncidentRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
