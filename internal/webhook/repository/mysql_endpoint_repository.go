package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/playbook/internal/database"
	"github.com/allisson/playbook/internal/webhook/domain"

	apperrors "github.com/allisson/playbook/internal/errors"
)

// MySQLEndpointRepository handles endpoint persistence for MySQL.
type MySQLEndpointRepository struct {
	db *sql.DB
}

// NewMySQLEndpointRepository creates a new MySQLEndpointRepository.
func NewMySQLEndpointRepository(db *sql.DB) *MySQLEndpointRepository {
	return &MySQLEndpointRepository{
		db: db,
	}
}

// Create inserts a new endpoint.
func (r *MySQLEndpointRepository) Create(ctx context.Context, endpoint *domain.Endpoint) error {
	querier := database.GetTx(ctx, r.db)

	events, err := marshalSubscribedEvents(endpoint.SubscribedEvents)
	if err != nil {
		return err
	}

	// Convert UUID to bytes for MySQL BINARY(16)
	idBytes, err := endpoint.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `INSERT INTO webhook_endpoints (id, name, url, secret, subscribed_events, is_active,
			                                 created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, NOW(), NOW())`

	_, err = querier.ExecContext(ctx, query,
		idBytes, endpoint.Name, endpoint.URL, endpoint.Secret, events, endpoint.IsActive)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrEndpointExists
		}
		return apperrors.Wrap(err, "failed to create endpoint")
	}
	return nil
}

// GetByID retrieves an endpoint by ID.
func (r *MySQLEndpointRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Endpoint, error) {
	var endpoint domain.Endpoint
	var events, idBytes []byte
	querier := database.GetTx(ctx, r.db)

	uuidBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `SELECT id, name, url, secret, subscribed_events, is_active, created_at, updated_at
			  FROM webhook_endpoints WHERE id = ?`

	err = querier.QueryRowContext(ctx, query, uuidBytes).Scan(
		&idBytes, &endpoint.Name, &endpoint.URL, &endpoint.Secret,
		&events, &endpoint.IsActive, &endpoint.CreatedAt, &endpoint.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEndpointNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get endpoint")
	}

	if err := endpoint.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	if endpoint.SubscribedEvents, err = unmarshalSubscribedEvents(events); err != nil {
		return nil, err
	}

	return &endpoint, nil
}

// ListActive returns every active endpoint.
func (r *MySQLEndpointRepository) ListActive(ctx context.Context) ([]*domain.Endpoint, error) {
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
		var events, idBytes []byte

		err := rows.Scan(&idBytes, &endpoint.Name, &endpoint.URL, &endpoint.Secret,
			&events, &endpoint.IsActive, &endpoint.CreatedAt, &endpoint.UpdatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan endpoint")
		}

		if err := endpoint.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
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

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation.
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "error 1062")
}
