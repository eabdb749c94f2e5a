package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/playbook/internal/catalog/domain"

	apperrors "github.com/allisson/playbook/internal/errors"
)

func TestPostgreSQLCatalogRepository_CreateOrganization(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck

		org := &domain.Organization{
			ID:    uuid.Must(uuid.NewV7()),
			Name:  "Riverside Sports Club",
			Email: "contact@riverside.example.com",
			Phone: "+1-555-0100",
		}

		mock.ExpectExec("INSERT INTO organizations").
			WithArgs(org.ID, org.Name, org.Email, org.Phone).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewPostgreSQLCatalogRepository(db)
		err = repo.CreateOrganization(context.Background(), org)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate name maps to conflict", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck

		org := &domain.Organization{ID: uuid.Must(uuid.NewV7()), Name: "Riverside Sports Club"}

		mock.ExpectExec("INSERT INTO organizations").
			WillReturnError(errors.New(`pq: duplicate key value violates unique constraint "organizations_name_key"`))

		repo := NewPostgreSQLCatalogRepository(db)
		err = repo.CreateOrganization(context.Background(), org)

		assert.ErrorIs(t, err, domain.ErrOrganizationExists)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})
}

func TestPostgreSQLCatalogRepository_ListActivePrograms(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	programID := uuid.Must(uuid.NewV7())
	orgID := uuid.Must(uuid.NewV7())
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "organization_id", "org_name", "name", "description", "is_active", "created_at", "updated_at",
	}).AddRow(programID.String(), orgID.String(), "Riverside Sports Club", "U12 Basketball", "Youth league", true, now, now)

	mock.ExpectQuery("SELECT (.+) FROM programs").WillReturnRows(rows)

	repo := NewPostgreSQLCatalogRepository(db)
	programs, err := repo.ListActivePrograms(context.Background())

	require.NoError(t, err)
	require.Len(t, programs, 1)
	assert.Equal(t, programID, programs[0].ID)
	assert.Equal(t, "Riverside Sports Club", programs[0].OrganizationName)
	assert.Equal(t, "U12 Basketball", programs[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLCatalogRepository_GetProgram(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck

		programID := uuid.Must(uuid.NewV7())
		mock.ExpectQuery("SELECT (.+) FROM programs").
			WithArgs(programID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		repo := NewPostgreSQLCatalogRepository(db)
		program, err := repo.GetProgram(context.Background(), programID)

		assert.Nil(t, program)
		assert.ErrorIs(t, err, domain.ErrProgramNotFound)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestPostgreSQLCatalogRepository_ListProgramSessions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	programID := uuid.Must(uuid.NewV7())
	sessionID := uuid.Must(uuid.NewV7())
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "program_id", "start_at", "end_at", "capacity", "location", "taken", "created_at", "updated_at",
	}).AddRow(sessionID.String(), programID.String(), now.Add(24*time.Hour), now.Add(26*time.Hour), 20, "Court A", 7, now, now)

	mock.ExpectQuery("SELECT (.+) FROM sessions").
		WithArgs(programID).
		WillReturnRows(rows)

	repo := NewPostgreSQLCatalogRepository(db)
	sessions, err := repo.ListProgramSessions(context.Background(), programID)

	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 20, sessions[0].Capacity)
	assert.Equal(t, 7, sessions[0].Taken)
	assert.Equal(t, 13, sessions[0].Available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLCatalogRepository_GetAvailability(t *testing.T) {
	t.Run("clamps available at zero", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck

		sessionID := uuid.Must(uuid.NewV7())

		rows := sqlmock.NewRows([]string{"id", "capacity", "taken"}).
			AddRow(sessionID.String(), 10, 10)

		mock.ExpectQuery("SELECT (.+) FROM sessions").
			WithArgs(sessionID).
			WillReturnRows(rows)

		repo := NewPostgreSQLCatalogRepository(db)
		availability, err := repo.GetAvailability(context.Background(), sessionID)

		require.NoError(t, err)
		assert.Equal(t, sessionID, availability.SessionID)
		assert.Equal(t, 0, availability.Available)
	})

	t.Run("unknown session", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck

		sessionID := uuid.Must(uuid.NewV7())
		mock.ExpectQuery("SELECT (.+) FROM sessions").
			WithArgs(sessionID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		repo := NewPostgreSQLCatalogRepository(db)
		availability, err := repo.GetAvailability(context.Background(), sessionID)

		assert.Nil(t, availability)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}

func TestAvailableSeats(t *testing.T) {
	assert.Equal(t, 5, availableSeats(10, 5))
	assert.Equal(t, 0, availableSeats(10, 10))
	assert.Equal(t, 0, availableSeats(10, 12))
}
