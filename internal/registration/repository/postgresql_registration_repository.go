// Package repository provides data persistence implementations for
// registrations and payments.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/playbook/internal/database"
	"github.com/allisson/playbook/internal/registration/domain"

	apperrors "github.com/allisson/playbook/internal/errors"
)

// PostgreSQLRegistrationRepository handles registration persistence for PostgreSQL.
type PostgreSQLRegistrationRepository struct {
	db *sql.DB
}

// NewPostgreSQLRegistrationRepository creates a new PostgreSQLRegistrationRepository.
func NewPostgreSQLRegistrationRepository(db *sql.DB) *PostgreSQLRegistrationRepository {
	return &PostgreSQLRegistrationRepository{
		db: db,
	}
}

// Create inserts a new registration.
func (r *PostgreSQLRegistrationRepository) Create(ctx context.Context, registration *domain.Registration) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO registrations (id, session_id, full_name, email, status, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query,
		registration.ID, registration.SessionID, registration.FullName,
		registration.Email, registration.Status)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrDuplicateRegistration
		}
		return apperrors.Wrap(err, "failed to create registration")
	}
	return nil
}

// GetByID retrieves a registration by ID.
func (r *PostgreSQLRegistrationRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Registration, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate retrieves a registration by ID acquiring an exclusive row
// lock. Must be called inside a transaction; payment and cancel flows
// serialize on this lock.
func (r *PostgreSQLRegistrationRepository) GetByIDForUpdate(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Registration, error) {
	return r.getByID(ctx, id, true)
}

func (r *PostgreSQLRegistrationRepository) getByID(
	ctx context.Context,
	id uuid.UUID,
	forUpdate bool,
) (*domain.Registration, error) {
	var registration domain.Registration
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, session_id, full_name, email, status, created_at, updated_at
			  FROM registrations WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	err := querier.QueryRowContext(ctx, query, id).Scan(
		&registration.ID, &registration.SessionID, &registration.FullName,
		&registration.Email, &registration.Status,
		&registration.CreatedAt, &registration.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRegistrationNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get registration")
	}

	return &registration, nil
}

// ExistsBySessionEmail reports whether any registration exists for the
// session and normalized email, regardless of status. A cancelled seat
// still blocks re-registration with the same email.
func (r *PostgreSQLRegistrationRepository) ExistsBySessionEmail(
	ctx context.Context,
	sessionID uuid.UUID,
	email string,
) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM registrations WHERE session_id = $1 AND email = $2)`

	if err := querier.QueryRowContext(ctx, query, sessionID, email).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check registration existence")
	}
	return exists, nil
}

// CountActiveBySession counts the registrations holding seats in the session
// (every status except cancelled).
func (r *PostgreSQLRegistrationRepository) CountActiveBySession(
	ctx context.Context,
	sessionID uuid.UUID,
) (int, error) {
	querier := database.GetTx(ctx, r.db)

	var count int
	query := `SELECT COUNT(*) FROM registrations WHERE session_id = $1 AND status <> $2`

	err := querier.QueryRowContext(ctx, query, sessionID, domain.RegistrationStatusCancelled).Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count registrations")
	}
	return count, nil
}

// UpdateStatus transitions a registration to a new status.
func (r *PostgreSQLRegistrationRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.RegistrationStatus,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE registrations SET status = $1, updated_at = NOW() WHERE id = $2`

	result, err := querier.ExecContext(ctx, query, status, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update registration status")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return domain.ErrRegistrationNotFound
	}
	return nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
