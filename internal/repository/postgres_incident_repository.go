package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// DBTX is the subset of pgxpool.Pool used by the Postgres store.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresIncidentRepository stores incidents in the incidents table.
type PostgresIncidentRepository struct {
	db DBTX
}

// NewPostgresIncidentRepository instantiates repository.
func NewPostgresIncidentRepository(db DBTX) *PostgresIncidentRepository {
	return &PostgresIncidentRepository{db: db}
}

func (r *PostgresIncidentRepository) Save(ctx context.Context, incident *domain.Incident) (*domain.Incident, error) {
	const query = `
        INSERT INTO incidents (ticket_id, line_number, type, description, priority, status, created_at, processed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (ticket_id) DO UPDATE SET
            line_number=EXCLUDED.line_number, type=EXCLUDED.type, description=EXCLUDED.description,
            priority=EXCLUDED.priority, status=EXCLUDED.status, created_at=EXCLUDED.created_at,
            processed_at=EXCLUDED.processed_at`
	if _, err := r.db.Exec(ctx, query,
		incident.TicketID,
		incident.LineNumber,
		string(incident.Type),
		incident.Description,
		string(incident.Priority),
		string(incident.Status),
		incident.CreatedAt,
		incident.ProcessedAt,
	); err != nil {
		return nil, fmt.Errorf("upsert incident %s: %w", incident.TicketID, err)
	}
	return incident, nil
}

func (r *PostgresIncidentRepository) FindByID(ctx context.Context, ticketID string) (*domain.Incident, error) {
	const query = `
        SELECT ticket_id, line_number, type, description, priority, status, created_at, processed_at
        FROM incidents WHERE ticket_id=$1`
	var (
		incident                       domain.Incident
		incidentType, priority, status string
	)
	if err := r.db.QueryRow(ctx, query, ticketID).Scan(
		&incident.TicketID,
		&incident.LineNumber,
		&incidentType,
		&incident.Description,
		&priority,
		&status,
		&incident.CreatedAt,
		&incident.ProcessedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find incident %s: %w", ticketID, err)
	}
	incident.Type = domain.IncidentType(incidentType)
	incident.Priority = domain.TicketPriority(priority)
	incident.Status = domain.TicketStatus(status)
	return &incident, nil
}

// Ping verifies database connectivity.
func (r *PostgresIncidentRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
