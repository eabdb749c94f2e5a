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

// MySQLCatalogRepository handles catalog persistence for MySQL.
type MySQLCatalogRepository struct {
	db *sql.DB
}

// NewMySQLCatalogRepository creates a new MySQLCatalogRepository.
func NewMySQLCatalogRepository(db *sql.DB) *MySQLCatalogRepository {
	return &MySQLCatalogRepository{
		db: db,
	}
}

// CreateOrganization inserts a new organization.
func (r *MySQLCatalogRepository) CreateOrganization(ctx context.Context, org *domain.Organization) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO organizations (id, name, email, phone, created_at, updated_at)
			  VALUES (?, ?, ?, ?, NOW(), NOW())`

	// Convert UUID to bytes for MySQL BINARY(16)
	uuidBytes, err := org.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	_, err = querier.ExecContext(ctx, query, uuidBytes, org.Name, org.Email, org.Phone)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrOrganizationExists
		}
		return apperrors.Wrap(err, "failed to create organization")
	}
	return nil
}

// GetOrganizationByName retrieves an organization by its unique name.
func (r *MySQLCatalogRepository) GetOrganizationByName(
	ctx context.Context,
	name string,
) (*domain.Organization, error) {
	var org domain.Organization
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, email, phone, created_at, updated_at
			  FROM organizations WHERE name = ?`

	var idBytes []byte
	err := querier.QueryRowContext(ctx, query, name).Scan(
		&idBytes, &org.Name, &org.Email, &org.Phone, &org.CreatedAt, &org.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get organization by name")
	}

	if err := org.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}

	return &org, nil
}

// CreateProgram inserts a new program.
func (r *MySQLCatalogRepository) CreateProgram(ctx context.Context, program *domain.Program) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO programs (id, organization_id, name, description, is_active, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, NOW(), NOW())`

	idBytes, err := program.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}
	orgIDBytes, err := program.OrganizationID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal organization UUID")
	}

	_, err = querier.ExecContext(ctx, query,
		idBytes, orgIDBytes, program.Name, program.Description, program.IsActive)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrProgramExists
		}
		return apperrors.Wrap(err, "failed to create program")
	}
	return nil
}

// ListActivePrograms returns active programs with their organization names,
// ordered by organization name then program name.
func (r *MySQLCatalogRepository) ListActivePrograms(ctx context.Context) ([]*domain.Program, error) {
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
		var idBytes, orgIDBytes []byte

		err := rows.Scan(&idBytes, &orgIDBytes, &program.OrganizationName,
			&program.Name, &program.Description, &program.IsActive,
			&program.CreatedAt, &program.UpdatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan program")
		}

		if err := program.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		if err := program.OrganizationID.UnmarshalBinary(orgIDBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal organization UUID")
		}

		programs = append(programs, &program)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate programs")
	}

	return programs, nil
}

// GetProgram retrieves an active program by ID.
func (r *MySQLCatalogRepository) GetProgram(ctx context.Context, id uuid.UUID) (*domain.Program, error) {
	var program domain.Program
	querier := database.GetTx(ctx, r.db)

	query := `SELECT p.id, p.organization_id, o.name, p.name, p.description, p.is_active,
			         p.created_at, p.updated_at
			  FROM programs p
			  JOIN organizations o ON o.id = p.organization_id
			  WHERE p.id = ? AND p.is_active = TRUE`

	uuidBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	var idBytes, orgIDBytes []byte
	err = querier.QueryRowContext(ctx, query, uuidBytes).Scan(
		&idBytes, &orgIDBytes, &program.OrganizationName,
		&program.Name, &program.Description, &program.IsActive,
		&program.CreatedAt, &program.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProgramNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get program")
	}

	if err := program.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	if err := program.OrganizationID.UnmarshalBinary(orgIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal organization UUID")
	}

	return &program, nil
}

// CreateSession inserts a new session.
func (r *MySQLCatalogRepository) CreateSession(ctx context.Context, session *domain.Session) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO sessions (id, program_id, start_at, end_at, capacity, location, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, NOW(), NOW())`

	idBytes, err := session.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}
	programIDBytes, err := session.ProgramID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal program UUID")
	}

	_, err = querier.ExecContext(ctx, query,
		idBytes, programIDBytes, session.StartAt, session.EndAt, session.Capacity, session.Location)
	if err != nil {
		return apperrors.Wrap(err, "failed to create session")
	}
	return nil
}

// ListProgramSessions returns a program's sessions ordered by start time,
// annotated with taken/available seat counts.
func (r *MySQLCatalogRepository) ListProgramSessions(
	ctx context.Context,
	programID uuid.UUID,
) ([]*domain.Session, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT s.id, s.program_id, s.start_at, s.end_at, s.capacity, s.location,
			         COUNT(CASE WHEN reg.status <> 'CANCELLED' THEN 1 END) AS taken,
			         s.created_at, s.updated_at
			  FROM sessions s
			  LEFT JOIN registrations reg ON reg.session_id = s.id
			  WHERE s.program_id = ?
			  GROUP BY s.id
			  ORDER BY s.start_at ASC`

	programIDBytes, err := programID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal program UUID")
	}

	rows, err := querier.QueryContext(ctx, query, programIDBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list sessions")
	}
	defer rows.Close() //nolint:errcheck

	var sessions []*domain.Session
	for rows.Next() {
		var session domain.Session
		var idBytes, progIDBytes []byte

		err := rows.Scan(&idBytes, &progIDBytes, &session.StartAt, &session.EndAt,
			&session.Capacity, &session.Location, &session.Taken,
			&session.CreatedAt, &session.UpdatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan session")
		}

		if err := session.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		if err := session.ProgramID.UnmarshalBinary(progIDBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal program UUID")
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
func (r *MySQLCatalogRepository) GetSession(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	return r.getSession(ctx, id, false)
}

// GetSessionForUpdate retrieves a session by ID acquiring an exclusive row
// lock. Must be called inside a transaction; concurrent admissions for the
// same session serialize on this lock while other sessions proceed freely.
func (r *MySQLCatalogRepository) GetSessionForUpdate(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Session, error) {
	return r.getSession(ctx, id, true)
}

func (r *MySQLCatalogRepository) getSession(
	ctx context.Context,
	id uuid.UUID,
	forUpdate bool,
) (*domain.Session, error) {
	var session domain.Session
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, program_id, start_at, end_at, capacity, location, created_at, updated_at
			  FROM sessions WHERE id = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	uuidBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	var idBytes, programIDBytes []byte
	err = querier.QueryRowContext(ctx, query, uuidBytes).Scan(
		&idBytes, &programIDBytes, &session.StartAt, &session.EndAt,
		&session.Capacity, &session.Location, &session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		if forUpdate {
			return nil, apperrors.Wrap(err, "failed to lock session")
		}
		return nil, apperrors.Wrap(err, "failed to get session")
	}

	if err := session.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	if err := session.ProgramID.UnmarshalBinary(programIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal program UUID")
	}

	return &session, nil
}

// GetAvailability returns the seat summary for one session.
func (r *MySQLCatalogRepository) GetAvailability(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Availability, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT s.id, s.capacity,
			         COUNT(CASE WHEN reg.status <> 'CANCELLED' THEN 1 END) AS taken
			  FROM sessions s
			  LEFT JOIN registrations reg ON reg.session_id = s.id
			  WHERE s.id = ?
			  GROUP BY s.id`

	uuidBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	var availability domain.Availability
	var idBytes []byte
	err = querier.QueryRowContext(ctx, query, uuidBytes).Scan(
		&idBytes, &availability.Capacity, &availability.Taken,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get availability")
	}

	if err := availability.SessionID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}

	availability.Available = availableSeats(availability.Capacity, availability.Taken)
	return &availability, nil
}

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation.
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// MySQL: "Error 1062: Duplicate entry" or "duplicate entry"
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "error 1062")
}
