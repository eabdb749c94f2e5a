package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/allisson/playbook/internal/database"
	"github.com/allisson/playbook/internal/webhook/domain"

	apperrors "github.com/allisson/playbook/internal/errors"
)

// PostgreSQLOutboxRepository handles outbox event persistence for PostgreSQL.
type PostgreSQLOutboxRepository struct {
	db *sql.DB
}

// NewPostgreSQLOutboxRepository creates a new PostgreSQLOutboxRepository.
func NewPostgreSQLOutboxRepository(db *sql.DB) *PostgreSQLOutboxRepository {
	return &PostgreSQLOutboxRepository{
		db: db,
	}
}

const postgresOutboxColumns = `id, endpoint_id, event_type, payload, status, attempts,
		next_attempt_at, delivered_at, last_error, last_status_code,
		claimed_by, claimed_until, created_at, updated_at`

// Create inserts a new outbox event.
func (r *PostgreSQLOutboxRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO outbox_events (id, endpoint_id, event_type, payload, status, attempts,
			                             next_attempt_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query,
		event.ID, event.EndpointID, event.EventType, event.Payload,
		event.Status, event.Attempts, event.NextAttemptAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create outbox event")
	}
	return nil
}

// GetByID retrieves an outbox event by ID.
func (r *PostgreSQLOutboxRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.OutboxEvent, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresOutboxColumns + ` FROM outbox_events WHERE id = $1`

	event, err := scanPostgresOutboxEvent(querier.QueryRowContext(ctx, query, id))
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
func (r *PostgreSQLOutboxRepository) ClaimDue(
	ctx context.Context,
	limit int,
	owner uuid.UUID,
	leaseUntil time.Time,
) ([]*domain.OutboxEvent, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresOutboxColumns + `
			  FROM outbox_events
			  WHERE status IN ($1, $2)
			    AND next_attempt_at <= NOW()
			    AND (claimed_until IS NULL OR claimed_until < NOW())
			  ORDER BY next_attempt_at ASC
			  LIMIT $3
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query,
		domain.OutboxEventStatusPending, domain.OutboxEventStatusRetry, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to select due events")
	}
	defer rows.Close() //nolint:errcheck

	var events []*domain.OutboxEvent
	var ids []uuid.UUID
	for rows.Next() {
		event, err := scanPostgresOutboxEvent(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan outbox event")
		}
		events = append(events, event)
		ids = append(ids, event.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate due events")
	}

	if len(events) == 0 {
		return nil, nil
	}

	claimQuery := `UPDATE outbox_events
				   SET claimed_by = $1, claimed_until = $2, updated_at = NOW()
				   WHERE id = ANY($3)`

	if _, err := querier.ExecContext(ctx, claimQuery, owner, leaseUntil, pq.Array(ids)); err != nil {
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
func (r *PostgreSQLOutboxRepository) Update(ctx context.Context, event *domain.OutboxEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE outbox_events
			  SET status = $1, attempts = $2, next_attempt_at = $3, delivered_at = $4,
			      last_error = $5, last_status_code = $6, claimed_by = $7, claimed_until = $8,
			      updated_at = NOW()
			  WHERE id = $9`

	_, err := querier.ExecContext(ctx, query,
		event.Status, event.Attempts, event.NextAttemptAt, event.DeliveredAt,
		event.LastError, event.LastStatusCode, event.ClaimedBy, event.ClaimedUntil, event.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update outbox event")
	}
	return nil
}

// CountDeliveredBefore returns how many delivered events are older than the
// cutoff, without removing them.
func (r *PostgreSQLOutboxRepository) CountDeliveredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT COUNT(*) FROM outbox_events WHERE status = 'DELIVERED' AND delivered_at < $1`

	var count int64
	if err := querier.QueryRowContext(ctx, query, cutoff).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count delivered outbox events")
	}
	return count, nil
}

// DeleteDeliveredBefore removes delivered events older than the cutoff and
// returns the number of rows removed.
func (r *PostgreSQLOutboxRepository) DeleteDeliveredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM outbox_events WHERE status = 'DELIVERED' AND delivered_at < $1`

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

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPostgresOutboxEvent(row rowScanner) (*domain.OutboxEvent, error) {
	var event domain.OutboxEvent
	var claimedBy uuid.NullUUID
	var claimedUntil, deliveredAt sql.NullTime
	var lastError sql.NullString
	var lastStatusCode sql.NullInt64

	err := row.Scan(
		&event.ID, &event.EndpointID, &event.EventType, &event.Payload,
		&event.Status, &event.Attempts, &event.NextAttemptAt, &deliveredAt,
		&lastError, &lastStatusCode, &claimedBy, &claimedUntil,
		&event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if claimedBy.Valid {
		event.ClaimedBy = &claimedBy.UUID
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
