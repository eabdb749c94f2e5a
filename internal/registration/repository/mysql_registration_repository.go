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

// MySQLRegistrationRepository handles registration persistence for MySQL.
type MySQLRegistrationRepository struct {
	db *sql.DB
}

// NewMySQLRegistrationRepository creates a new MySQLRegistrationRepository.
func NewMySQLRegistrationRepository(db *sql.DB) *MySQLRegistrationRepository {
	return &MySQLRegistrationRepository{
		db: db,
	}
}

// Create inserts a new registration.
func (r *MySQLRegistrationRepository) Create(ctx context.Context, registration *domain.Registration) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO registrations (id, session_id, full_name, email, status, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, NOW(), NOW())`

	// Convert UUID to bytes for MySQL BINARY(16)
	idBytes, err := registration.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}
	sessionIDBytes, err := registration.SessionID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal session UUID")
	}

	_, err = querier.ExecContext(ctx, query,
		idBytes, sessionIDBytes, registration.FullName, registration.Email, registration.Status)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrDuplicateRegistration
		}
		return apperrors.Wrap(err, "failed to create registration")
	}
	return nil
}

// GetByID retrieves a registration by ID.
func (r *MySQLRegistrationRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Registration, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate retrieves a registration by ID acquiring an exclusive row
// lock. Must be called inside a transaction; payment and cancel flows
// serialize on this lock.
func (r *MySQLRegistrationRepository) GetByIDForUpdate(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Registration, error) {
	return r.getByID(ctx, id, true)
}

func (r *MySQLRegistrationRepository) getByID(
	ctx context.Context,
	id uuid.UUID,
	forUpdate bool,
) (*domain.Registration, error) {
	var registration domain.Registration
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, session_id, full_name, email, status, created_at, updated_at
			  FROM registrations WHERE id = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	uuidBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	var idBytes, sessionIDBytes []byte
	err = querier.QueryRowContext(ctx, query, uuidBytes).Scan(
		&idBytes, &sessionIDBytes, &registration.FullName, &registration.Email,
		&registration.Status, &registration.CreatedAt, &registration.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRegistrationNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get registration")
	}

	if err := registration.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	if err := registration.SessionID.UnmarshalBinary(sessionIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal session UUID")
	}

	return &registration, nil
}

// ExistsBySessionEmail reports whether any registration exists for the
// session and normalized email, regardless of status. A cancelled seat
// still blocks re-registration with the same email.
func (r *MySQLRegistrationRepository) ExistsBySessionEmail(
	ctx context.Context,
	sessionID uuid.UUID,
	email string,
) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	sessionIDBytes, err := sessionID.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal session UUID")
	}

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM registrations WHERE session_id = ? AND email = ?)`

	if err := querier.QueryRowContext(ctx, query, sessionIDBytes, email).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check registration existence")
	}
	return exists, nil
}

// CountActiveBySession counts the registrations holding seats in the session
// (every status except cancelled).
func (r *MySQLRegistrationRepository) CountActiveBySession(
	ctx context.Context,
	sessionID uuid.UUID,
) (int, error) {
	querier := database.GetTx(ctx, r.db)

	sessionIDBytes, err := sessionID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal session UUID")
	}

	var count int
	query := `SELECT COUNT(*) FROM registrations WHERE session_id = ? AND status <> ?`

	err = querier.QueryRowContext(ctx, query, sessionIDBytes, domain.RegistrationStatusCancelled).Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count registrations")
	}
	return count, nil
}

// UpdateStatus transitions a registration to a new status.
func (r *MySQLRegistrationRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.RegistrationStatus,
) error {
	querier := database.GetTx(ctx, r.db)

	uuidBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `UPDATE registrations SET status = ?, updated_at = NOW() WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, status, uuidBytes)
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

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation.
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "error 1062")
}
