package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/playbook/internal/catalog/domain"
)

// MockCatalogRepository is a mock implementation of CatalogRepository
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) ListActivePrograms(ctx context.Context) ([]*domain.Program, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Program), args.Error(1)
}

func (m *MockCatalogRepository) GetProgram(ctx context.Context, id uuid.UUID) (*domain.Program, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Program), args.Error(1)
}

func (m *MockCatalogRepository) ListProgramSessions(
	ctx context.Context,
	programID uuid.UUID,
) ([]*domain.Session, error) {
	args := m.Called(ctx, programID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Session), args.Error(1)
}

func (m *MockCatalogRepository) GetAvailability(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Availability, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Availability), args.Error(1)
}

func TestCatalogUseCase_ListPrograms(t *testing.T) {
	catalogRepo := new(MockCatalogRepository)
	uc := NewCatalogUseCase(catalogRepo)

	programs := []*domain.Program{
		{ID: uuid.Must(uuid.NewV7()), Name: "U12 Basketball", OrganizationName: "Riverside Sports Club"},
	}
	catalogRepo.On("ListActivePrograms", mock.Anything).Return(programs, nil)

	got, err := uc.ListPrograms(context.Background())

	require.NoError(t, err)
	assert.Equal(t, programs, got)
	catalogRepo.AssertExpectations(t)
}

func TestCatalogUseCase_ListProgramSessions(t *testing.T) {
	t.Run("unknown program short-circuits", func(t *testing.T) {
		catalogRepo := new(MockCatalogRepository)
		uc := NewCatalogUseCase(catalogRepo)

		programID := uuid.Must(uuid.NewV7())
		catalogRepo.On("GetProgram", mock.Anything, programID).Return(nil, domain.ErrProgramNotFound)

		sessions, err := uc.ListProgramSessions(context.Background(), programID)

		assert.Nil(t, sessions)
		assert.ErrorIs(t, err, domain.ErrProgramNotFound)
		catalogRepo.AssertNotCalled(t, "ListProgramSessions", mock.Anything, mock.Anything)
	})

	t.Run("returns annotated sessions", func(t *testing.T) {
		catalogRepo := new(MockCatalogRepository)
		uc := NewCatalogUseCase(catalogRepo)

		programID := uuid.Must(uuid.NewV7())
		program := &domain.Program{ID: programID, Name: "U12 Basketball", IsActive: true}
		sessions := []*domain.Session{
			{
				ID:        uuid.Must(uuid.NewV7()),
				ProgramID: programID,
				StartAt:   time.Now().Add(24 * time.Hour),
				Capacity:  20,
				Taken:     7,
				Available: 13,
			},
		}

		catalogRepo.On("GetProgram", mock.Anything, programID).Return(program, nil)
		catalogRepo.On("ListProgramSessions", mock.Anything, programID).Return(sessions, nil)

		got, err := uc.ListProgramSessions(context.Background(), programID)

		require.NoError(t, err)
		assert.Equal(t, sessions, got)
		catalogRepo.AssertExpectations(t)
	})
}

func TestCatalogUseCase_GetSessionAvailability(t *testing.T) {
	catalogRepo := new(MockCatalogRepository)
	uc := NewCatalogUseCase(catalogRepo)

	sessionID := uuid.Must(uuid.NewV7())
	availability := &domain.Availability{SessionID: sessionID, Capacity: 10, Taken: 4, Available: 6}
	catalogRepo.On("GetAvailability", mock.Anything, sessionID).Return(availability, nil)

	got, err := uc.GetSessionAvailability(context.Background(), sessionID)

	require.NoError(t, err)
	assert.Equal(t, availability, got)
	catalogRepo.AssertExpectations(t)
}
