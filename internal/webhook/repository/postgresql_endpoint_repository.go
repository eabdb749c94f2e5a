// Package repository provides data persistence implementations for webhook
// endpoints and outbox events.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/playbook/internal/database"
	"github.com/allisson/playbook/internal/webhook/domain"

	apperrors "github.com/allisson/playbook/internal/errors"
)

// PostgreSQLEndpointRepository handles endpoint persistence for PostgreSQL.
type PostgreSQLEndpointRepository struct {
	db *sql.DB
}

// NewPostgreSQLEndpointRepository creates a new PostgreSQLEndpointRepository.
func NewPostgreSQLEndpointRepository(db *sql.DB) *PostgreSQLEndpointRepository {
	return &PostgreSQLEndpointRepository{
		db: db,
	}
}

// Create inserts a new endpoint.
func (r *PostgreSQLEndpointRepository) Create(ctx context.Context, endpoint *domain.Endpoint) error {
	querier := database.GetTx(ctx, r.db)

	events, err := marshalSubscribedEvents(endpoint.SubscribedEvents)
	if err != nil {
		return err
	}

	query := `INSERT INTO webhook_endpoints (id, name, url, secret, subscribed_events, is_active,
			                                 created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`

	_, err = querier.ExecContext(ctx, query,
		endpoint.ID, endpoint.Name, endpoint.URL, endpoint.Secret, events, endpoint.IsActive)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrEndpointExists
		}
		return apperrors.Wrap(err, "failed to create endpoint")
	}
	return nil
}

// GetByID retrieves an endpoint by ID.
func (r *PostgreSQLEndpointRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Endpoint, error) {
	var endpoint domain.Endpoint
	var events []byte
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, url, secret, subscribed_events, is_active, created_at, updated_at
			  FROM webhook_endpoints WHERE id = $1`

	err := querier.QueryRowContext(ctx, query, id).Scan(
		&endpoint.ID, &endpoint.Name, &endpoint.URL, &endpoint.Secret,
		&events, &endpoint.IsActive, &endpoint.CreatedAt, &endpoint.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEndpointNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get endpoint")
	}

	if endpoint.SubscribedEvents, err = unmarshalSubscribedEvents(events); err != nil {
		return nil, err
	}

	return &endpoint, nil
}

// ListActive returns every active endpoint.
func (r *PostgreSQLEndpointRepository) ListActive(ctx context.Context) ([]*domain.Endpoint, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, url, secret, subscribed_events, is_active, created_at, updated_at
			  FROM webhook_endpoints
			  WHERE is_active = TRUE
			  ORDER BY name ASC`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list endpoints")
	}
	defer rows.Close() //nolint:errcheck

	var endpoints []*domain.Endpoint
	for rows.Next() {
		var endpoint domain.Endpoint
		var events []byte

		err := rows.Scan(&endpoint.ID, &endpoint.Name, &endpoint.URL, &endpoint.Secret,
			&events, &endpoint.IsActive, &endpoint.CreatedAt, &endpoint.UpdatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan endpoint")
		}

		if endpoint.SubscribedEvents, err = unmarshalSubscribedEvents(events); err != nil {
			return nil, err
		}

		endpoints = append(endpoints, &endpoint)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate endpoints")
	}

	return endpoints, nil
}

// marshalSubscribedEvents encodes the subscription list for the JSON column.
func marshalSubscribedEvents(events []string) ([]byte, error) {
	if events == nil {
		events = []string{}
	}
	encoded, err := json.Marshal(events)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal subscribed events")
	}
	return encoded, nil
}

// unmarshalSubscribedEvents decodes the subscription list from the JSON column.
func unmarshalSubscribedEvents(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var events []string
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal subscribed events")
	}
	if len(events) == 0 {
		return nil, nil
	}
	return events, nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
