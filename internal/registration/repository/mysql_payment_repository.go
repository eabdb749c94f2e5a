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

// MySQLPaymentRepository handles payment persistence for MySQL.
type MySQLPaymentRepository struct {
	db *sql.DB
}

// NewMySQLPaymentRepository creates a new MySQLPaymentRepository.
func NewMySQLPaymentRepository(db *sql.DB) *MySQLPaymentRepository {
	return &MySQLPaymentRepository{
		db: db,
	}
}

// Create inserts a new payment.
func (r *MySQLPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO payments (id, registration_id, amount, status, provider, reference,
			                        created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, NOW(), NOW())`

	idBytes, err := payment.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}
	registrationIDBytes, err := payment.RegistrationID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal registration UUID")
	}

	_, err = querier.ExecContext(ctx, query,
		idBytes, registrationIDBytes, payment.Amount,
		payment.Status, payment.Provider, payment.Reference)
	if err != nil {
		return apperrors.Wrap(err, "failed to create payment")
	}
	return nil
}

// Update persists a payment's settlement outcome (status and reference).
func (r *MySQLPaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := payment.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `UPDATE payments SET status = ?, reference = ?, updated_at = NOW() WHERE id = ?`

	_, err = querier.ExecContext(ctx, query, payment.Status, payment.Reference, idBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to update payment")
	}
	return nil
}

// GetLatestPaidByRegistration returns the most recent settled payment for a
// registration, or a not found error when none has settled.
func (r *MySQLPaymentRepository) GetLatestPaidByRegistration(
	ctx context.Context,
	registrationID uuid.UUID,
) (*domain.Payment, error) {
	var payment domain.Payment
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, registration_id, amount, status, provider, reference, created_at, updated_at
			  FROM payments
			  WHERE registration_id = ? AND status = ?
			  ORDER BY created_at DESC
			  LIMIT 1`

	registrationIDBytes, err := registrationID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal registration UUID")
	}

	var idBytes, regIDBytes []byte
	err = querier.QueryRowContext(ctx, query, registrationIDBytes, domain.PaymentStatusPaid).Scan(
		&idBytes, &regIDBytes, &payment.Amount, &payment.Status,
		&payment.Provider, &payment.Reference, &payment.CreatedAt, &payment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get paid payment")
	}

	if err := payment.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	if err := payment.RegistrationID.UnmarshalBinary(regIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal registration UUID")
	}

	return &payment, nil
}

// ListByRegistration returns a registration's payments, newest first.
func (r *MySQLPaymentRepository) ListByRegistration(
	ctx context.Context,
	registrationID uuid.UUID,
) ([]*domain.Payment, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, registration_id, amount, status, provider, reference, created_at, updated_at
			  FROM payments
			  WHERE registration_id = ?
			  ORDER BY created_at DESC`

	registrationIDBytes, err := registrationID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal registration UUID")
	}

	rows, err := querier.QueryContext(ctx, query, registrationIDBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list payments")
	}
	defer rows.Close() //nolint:errcheck

	var payments []*domain.Payment
	for rows.Next() {
		var payment domain.Payment
		var idBytes, regIDBytes []byte

		err := rows.Scan(&idBytes, &regIDBytes, &payment.Amount, &payment.Status,
			&payment.Provider, &payment.Reference, &payment.CreatedAt, &payment.UpdatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan payment")
		}

		if err := payment.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		if err := payment.RegistrationID.UnmarshalBinary(regIDBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal registration UUID")
		}

		payments = append(payments, &payment)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate payments")
	}

	return payments, nil
}
