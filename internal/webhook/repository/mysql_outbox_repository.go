package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/playbook/internal/database"
	"github.com/allisson/playbook/internal/webhook/domain"

	apperrors "github.com/allisson/playbook/internal/errors"
)

// MySQLOutboxRepository handles outbox event persistence for MySQL.
type MySQLOutboxRepository struct {
	db *sql.DB
}

// NewMySQLOutboxRepository creates a new MySQLOutboxRepository.
func NewMySQLOutboxRepository(db *sql.DB) *MySQLOutboxRepository {
	return &MySQLOutboxRepository{
		db: db,
	}
}

const mysqlOutboxColumns = `id, endpoint_id, event_type, payload, status, attempts,
		next_attempt_at, delivered_at, last_error, last_status_code,
		claimed_by, claimed_until, created_at, updated_at`

// Create inserts a new outbox event.
func (r *MySQLOutboxRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	querier := database.GetTx(ctx, r.db)

	// Convert UUIDs to bytes for MySQL BINARY(16)
	idBytes, err := event.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}
	endpointIDBytes, err := event.EndpointID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal endpoint UUID")
	}

	query := `INSERT INTO outbox_events (id, endpoint_id, event_type, payload, status, attempts,
			                             next_attempt_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	_, err = querier.ExecContext(ctx, query,
		idBytes, endpointIDBytes, event.EventType, event.Payload,
		event.Status, event.Attempts, event.NextAttemptAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create outbox event")
	}
	return nil
}

// GetByID retrieves an outbox event by ID.
func (r *MySQLOutboxRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.OutboxEvent, error) {
	querier := database.GetTx(ctx, r.db)

	uuidBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `SELECT ` + mysqlOutboxColumns + ` FROM outbox_events WHERE id = ?`

	event, err := scanMySQLOutboxEvent(querier.QueryRowContext(ctx, query, uuidBytes))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get outbox event")
	}
	return event, nil
}

// ClaimDue selects due events (pending or retrying, past their next attempt,
// with no live lease) and stamps the caller's lease on them. Must be called
// inside a transaction: the row lock with SKIP LOCKED keeps concurrent
// dispatchers from claiming the same rows, and the lease keeps a second
// scheduler pass from re-dispatching events a crashed worker still holds.
func (r *MySQLOutboxRepository) ClaimDue(
	ctx context.Context,
	limit int,
	owner uuid.UUID,
	leaseUntil time.Time,
) ([]*domain.OutboxEvent, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlOutboxColumns + `
			  FROM outbox_events
			  WHERE status IN (?, ?)
			    AND next_attempt_at <= NOW()
			    AND (claimed_until IS NULL OR claimed_until < NOW())
			  ORDER BY next_attempt_at ASC
			  LIMIT ?
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query,
		domain.OutboxEventStatusPending, domain.OutboxEventStatusRetry, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to select due events")
	}
	defer rows.Close() //nolint:errcheck

	var events []*domain.OutboxEvent
	var idArgs []any
	for rows.Next() {
		event, err := scanMySQLOutboxEvent(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan outbox event")
		}
		events = append(events, event)

		eventIDBytes, err := event.ID.MarshalBinary()
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to marshal UUID")
		}
		idArgs = append(idArgs, eventIDBytes)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate due events")
	}

	if len(events) == 0 {
		return nil, nil
	}

	ownerBytes, err := owner.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal owner UUID")
	}

	placeholders := strings.Repeat("?,", len(idArgs))
	placeholders = placeholders[:len(placeholders)-1]
	claimQuery := `UPDATE outbox_events
				   SET claimed_by = ?, claimed_until = ?, updated_at = NOW()
				   WHERE id IN (` + placeholders + `)`

	args := append([]any{ownerBytes, leaseUntil}, idArgs...)
	if _, err := querier.ExecContext(ctx, claimQuery, args...); err != nil {
		return nil, apperrors.Wrap(err, "failed to claim due events")
	}

	for _, event := range events {
		ownerCopy := owner
		leaseCopy := leaseUntil
		event.ClaimedBy = &ownerCopy
		event.ClaimedUntil = &leaseCopy
	}

	return events, nil
}

// Update persists a delivery outcome: status, attempt bookkeeping, and lease
// release.
func (r *MySQLOutboxRepository) Update(ctx context.Context, event *domain.OutboxEvent) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := event.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	var claimedBy []byte
	if event.ClaimedBy != nil {
		claimedBy, err = event.ClaimedBy.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal claim owner UUID")
		}
	}

	query := `UPDATE outbox_events
			  SET status = ?, attempts = ?, next_attempt_at = ?, delivered_at = ?,
			      last_error = ?, last_status_code = ?, claimed_by = ?, claimed_until = ?,
			      updated_at = NOW()
			  WHERE id = ?`

	_, err = querier.ExecContext(ctx, query,
		event.Status, event.Attempts, event.NextAttemptAt, event.DeliveredAt,
		event.LastError, event.LastStatusCode, claimedBy, event.ClaimedUntil, idBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to update outbox event")
	}
	return nil
}

func scanMySQLOutboxEvent(row rowScanner) (*domain.OutboxEvent, error) {
	var event domain.OutboxEvent
	var idBytes, endpointIDBytes, claimedByBytes []byte
	var claimedUntil, deliveredAt sql.NullTime
	var lastError sql.NullString
	var lastStatusCode sql.NullInt64

	err := row.Scan(
		&idBytes, &endpointIDBytes, &event.EventType, &event.Payload,
		&event.Status, &event.Attempts, &event.NextAttemptAt, &deliveredAt,
		&lastError, &lastStatusCode, &claimedByBytes, &claimedUntil,
		&event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := event.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	if err := event.EndpointID.UnmarshalBinary(endpointIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal endpoint UUID")
	}
	if len(claimedByBytes) > 0 {
		var owner uuid.UUID
		if err := owner.UnmarshalBinary(claimedByBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal claim owner UUID")
		}
		event.ClaimedBy = &owner
	}
	if claimedUntil.Valid {
		event.ClaimedUntil = &claimedUntil.Time
	}
	if deliveredAt.Valid {
		event.DeliveredAt = &deliveredAt.Time
	}
	if lastError.Valid {
		event.LastError = &lastError.String
	}
	if lastStatusCode.Valid {
		code := int(lastStatusCode.Int64)
		event.LastStatusCode = &code
	}

	return &event, nil
}

// CountDeliveredBefore returns how many delivered events are older than the
// cutoff, without removing them.
func (r *MySQLOutboxRepository) CountDeliveredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT COUNT(*) FROM outbox_events WHERE status = 'DELIVERED' AND delivered_at < ?`

	var count int64
	if err := querier.QueryRowContext(ctx, query, cutoff).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count delivered outbox events")
	}
	return count, nil
}

// DeleteDeliveredBefore removes delivered events older than the cutoff and
// returns the number of rows removed.
func (r *MySQLOutboxRepository) DeleteDeliveredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM outbox_events WHERE status = 'DELIVERED' AND delivered_at < ?`

	result, err := querier.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete delivered outbox events")
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get rows affected")
	}
	return deleted, nil
}
