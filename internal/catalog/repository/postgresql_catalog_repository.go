// Package repository provides data persistence implementations for catalog entities.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/playbook/internal/catalog/domain"
	"github.com/allisson/playbook/internal/database"

	apperrors "github.com/allisson/playbook/internal/errors"
)

// PostgreSQLCatalogRepository handles catalog persistence for PostgreSQL.
type PostgreSQLCatalogRepository struct {
	db *sql.DB
}

// NewPostgreSQLCatalogRepository creates a new PostgreSQLCatalogRepository.
func NewPostgreSQLCatalogRepository(db *sql.DB) *PostgreSQLCatalogRepository {
	return &PostgreSQLCatalogRepository{
		db: db,
	}
}

// CreateOrganization inserts a new organization.
func (r *PostgreSQLCatalogRepository) CreateOrganization(ctx context.Context, org *domain.Organization) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO organizations (id, name, email, phone, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, org.ID, org.Name, org.Email, org.Phone)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrOrganizationExists
		}
		return apperrors.Wrap(err, "failed to create organization")
	}
	return nil
}

// GetOrganizationByName retrieves an organization by its unique name.
func (r *PostgreSQLCatalogRepository) GetOrganizationByName(
	ctx context.Context,
	name string,
) (*domain.Organization, error) {
	var org domain.Organization
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, email, phone, created_at, updated_at
			  FROM organizations WHERE name = $1`

	err := querier.QueryRowContext(ctx, query, name).Scan(
		&org.ID, &org.Name, &org.Email, &org.Phone, &org.CreatedAt, &org.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get organization by name")
	}

	return &org, nil
}

// CreateProgram inserts a new program.
func (r *PostgreSQLCatalogRepository) CreateProgram(ctx context.Context, program *domain.Program) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO programs (id, organization_id, name, description, is_active, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query,
		program.ID, program.OrganizationID, program.Name, program.Description, program.IsActive)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrProgramExists
		}
		return apperrors.Wrap(err, "failed to create program")
	}
	return nil
}

// ListActivePrograms returns active programs with their organization names,
// ordered by organization name then program name.
func (r *PostgreSQLCatalogRepository) ListActivePrograms(ctx context.Context) ([]*domain.Program, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT p.id, p.organization_id, o.name, p.name, p.description, p.is_active,
			         p.created_at, p.updated_at
			  FROM programs p
			  JOIN organizations o ON o.id = p.organization_id
			  WHERE p.is_active = TRUE
			  ORDER BY o.name ASC, p.name ASC`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list programs")
	}
	defer rows.Close() //nolint:errcheck

	var programs []*domain.Program
	for rows.Next() {
		var program domain.Program

		err := rows.Scan(&program.ID, &program.OrganizationID, &program.OrganizationName,
			&program.Name, &program.Description, &program.IsActive,
			&program.CreatedAt, &program.UpdatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan program")
		}

		programs = append(programs, &program)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate programs")
	}

	return programs, nil
}

// GetProgram retrieves an active program by ID.
func (r *PostgreSQLCatalogRepository) GetProgram(ctx context.Context, id uuid.UUID) (*domain.Program, error) {
	var program domain.Program
	querier := database.GetTx(ctx, r.db)

	query := `SELECT p.id, p.organization_id, o.name, p.name, p.description, p.is_active,
			         p.created_at, p.updated_at
			  FROM programs p
			  JOIN organizations o ON o.id = p.organization_id
			  WHERE p.id = $1 AND p.is_active = TRUE`

	err := querier.QueryRowContext(ctx, query, id).Scan(
		&program.ID, &program.OrganizationID, &program.OrganizationName,
		&program.Name, &program.Description, &program.IsActive,
		&program.CreatedAt, &program.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProgramNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get program")
	}

	return &program, nil
}

// CreateSession inserts a new session.
func (r *PostgreSQLCatalogRepository) CreateSession(ctx context.Context, session *domain.Session) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO sessions (id, program_id, start_at, end_at, capacity, location, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query,
		session.ID, session.ProgramID, session.StartAt, session.EndAt, session.Capacity, session.Location)
	if err != nil {
		return apperrors.Wrap(err, "failed to create session")
	}
	return nil
}

// ListProgramSessions returns a program's sessions ordered by start time,
// annotated with taken/available seat counts.
func (r *PostgreSQLCatalogRepository) ListProgramSessions(
	ctx context.Context,
	programID uuid.UUID,
) ([]*domain.Session, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT s.id, s.program_id, s.start_at, s.end_at, s.capacity, s.location,
			         COUNT(CASE WHEN reg.status <> 'CANCELLED' THEN 1 END) AS taken,
			         s.created_at, s.updated_at
			  FROM sessions s
			  LEFT JOIN registrations reg ON reg.session_id = s.id
			  WHERE s.program_id = $1
			  GROUP BY s.id
			  ORDER BY s.start_at ASC`

	rows, err := querier.QueryContext(ctx, query, programID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list sessions")
	}
	defer rows.Close() //nolint:errcheck

	var sessions []*domain.Session
	for rows.Next() {
		var session domain.Session

		err := rows.Scan(&session.ID, &session.ProgramID, &session.StartAt, &session.EndAt,
			&session.Capacity, &session.Location, &session.Taken,
			&session.CreatedAt, &session.UpdatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan session")
		}

		session.Available = availableSeats(session.Capacity, session.Taken)
		sessions = append(sessions, &session)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate sessions")
	}

	return sessions, nil
}

// GetSession retrieves a session by ID.
func (r *PostgreSQLCatalogRepository) GetSession(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	var session domain.Session
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, program_id, start_at, end_at, capacity, location, created_at, updated_at
			  FROM sessions WHERE id = $1`

	err := querier.QueryRowContext(ctx, query, id).Scan(
		&session.ID, &session.ProgramID, &session.StartAt, &session.EndAt,
		&session.Capacity, &session.Location, &session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get session")
	}

	return &session, nil
}

// GetSessionForUpdate retrieves a session by ID acquiring an exclusive row
// lock. Must be called inside a transaction; concurrent admissions for the
// same session serialize on this lock while other sessions proceed freely.
func (r *PostgreSQLCatalogRepository) GetSessionForUpdate(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Session, error) {
	var session domain.Session
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, program_id, start_at, end_at, capacity, location, created_at, updated_at
			  FROM sessions WHERE id = $1
			  FOR UPDATE`

	err := querier.QueryRowContext(ctx, query, id).Scan(
		&session.ID, &session.ProgramID, &session.StartAt, &session.EndAt,
		&session.Capacity, &session.Location, &session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, apperrors.Wrap(err, "failed to lock session")
	}

	return &session, nil
}

// GetAvailability returns the seat summary for one session.
func (r *PostgreSQLCatalogRepository) GetAvailability(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Availability, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT s.id, s.capacity,
			         COUNT(CASE WHEN reg.status <> 'CANCELLED' THEN 1 END) AS taken
			  FROM sessions s
			  LEFT JOIN registrations reg ON reg.session_id = s.id
			  WHERE s.id = $1
			  GROUP BY s.id`

	var availability domain.Availability
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&availability.SessionID, &availability.Capacity, &availability.Taken,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get availability")
	}

	availability.Available = availableSeats(availability.Capacity, availability.Taken)
	return &availability, nil
}

// availableSeats derives the free seat count, clamped at zero.
func availableSeats(capacity, taken int) int {
	if available := capacity - taken; available > 0 {
		return available
	}
	return 0
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// PostgreSQL: "duplicate key value violates unique constraint" or "pq: duplicate key"
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
