package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/playbook/internal/database"
	"github.com/allisson/playbook/internal/registration/domain"

	apperrors "github.com/allisson/playbook/internal/errors"
)

// PostgreSQLPaymentRepository handles payment persistence for PostgreSQL.
type PostgreSQLPaymentRepository struct {
	db *sql.DB
}

// NewPostgreSQLPaymentRepository creates a new PostgreSQLPaymentRepository.
func NewPostgreSQLPaymentRepository(db *sql.DB) *PostgreSQLPaymentRepository {
	return &PostgreSQLPaymentRepository{
		db: db,
	}
}

// Create inserts a new payment.
func (r *PostgreSQLPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO payments (id, registration_id, amount, status, provider, reference,
			                        created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query,
		payment.ID, payment.RegistrationID, payment.Amount,
		payment.Status, payment.Provider, payment.Reference)
	if err != nil {
		return apperrors.Wrap(err, "failed to create payment")
	}
	return nil
}

// Update persists a payment's settlement outcome (status and reference).
func (r *PostgreSQLPaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE payments SET status = $1, reference = $2, updated_at = NOW() WHERE id = $3`

	_, err := querier.ExecContext(ctx, query, payment.Status, payment.Reference, payment.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update payment")
	}
	return nil
}

// GetLatestPaidByRegistration returns the most recent settled payment for a
// registration, or a not found error when none has settled.
func (r *PostgreSQLPaymentRepository) GetLatestPaidByRegistration(
	ctx context.Context,
	registrationID uuid.UUID,
) (*domain.Payment, error) {
	var payment domain.Payment
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, registration_id, amount, status, provider, reference, created_at, updated_at
			  FROM payments
			  WHERE registration_id = $1 AND status = $2
			  ORDER BY created_at DESC
			  LIMIT 1`

	err := querier.QueryRowContext(ctx, query, registrationID, domain.PaymentStatusPaid).Scan(
		&payment.ID, &payment.RegistrationID, &payment.Amount, &payment.Status,
		&payment.Provider, &payment.Reference, &payment.CreatedAt, &payment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get paid payment")
	}

	return &payment, nil
}

// ListByRegistration returns a registration's payments, newest first.
func (r *PostgreSQLPaymentRepository) ListByRegistration(
	ctx context.Context,
	registrationID uuid.UUID,
) ([]*domain.Payment, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, registration_id, amount, status, provider, reference, created_at, updated_at
			  FROM payments
			  WHERE registration_id = $1
			  ORDER BY created_at DESC`

	rows, err := querier.QueryContext(ctx, query, registrationID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list payments")
	}
	defer rows.Close() //nolint:errcheck

	var payments []*domain.Payment
	for rows.Next() {
		var payment domain.Payment

		err := rows.Scan(&payment.ID, &payment.RegistrationID, &payment.Amount, &payment.Status,
			&payment.Provider, &payment.Reference, &payment.CreatedAt, &payment.UpdatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan payment")
		}

		payments = append(payments, &payment)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate payments")
	}

	return payments, nil
}
