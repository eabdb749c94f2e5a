package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/playbook/internal/catalog/domain"
	"github.com/allisson/playbook/internal/catalog/http/dto"
)

// MockCatalogUseCase is a mock implementation of usecase.UseCase
type MockCatalogUseCase struct {
	mock.Mock
}

func (m *MockCatalogUseCase) ListPrograms(ctx context.Context) ([]*domain.Program, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Program), args.Error(1)
}

func (m *MockCatalogUseCase) GetProgram(ctx context.Context, id uuid.UUID) (*domain.Program, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Program), args.Error(1)
}

func (m *MockCatalogUseCase) ListProgramSessions(
	ctx context.Context,
	programID uuid.UUID,
) ([]*domain.Session, error) {
	args := m.Called(ctx, programID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Session), args.Error(1)
}

func (m *MockCatalogUseCase) GetSessionAvailability(
	ctx context.Context,
	sessionID uuid.UUID,
) (*domain.Availability, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Availability), args.Error(1)
}

// setupTestRouter creates a gin router wired to a handler with mocked dependencies.
func setupTestRouter(t *testing.T) (*gin.Engine, *MockCatalogUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := new(MockCatalogUseCase)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewCatalogHandler(mockUseCase, logger)

	router := gin.New()
	router.GET("/v1/programs", handler.ListProgramsHandler)
	router.GET("/v1/programs/:id", handler.GetProgramHandler)
	router.GET("/v1/programs/:id/sessions", handler.ListProgramSessionsHandler)
	router.GET("/v1/sessions/:id/availability", handler.GetAvailabilityHandler)

	return router, mockUseCase
}

func TestCatalogHandler_ListProgramsHandler(t *testing.T) {
	router, mockUseCase := setupTestRouter(t)

	programs := []*domain.Program{
		{
			ID:               uuid.Must(uuid.NewV7()),
			OrganizationID:   uuid.Must(uuid.NewV7()),
			OrganizationName: "Riverside Sports Club",
			Name:             "U12 Basketball",
			IsActive:         true,
		},
	}
	mockUseCase.On("ListPrograms", mock.Anything).Return(programs, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/programs", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.ProgramListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Programs, 1)
	assert.Equal(t, "U12 Basketball", response.Programs[0].Name)
	assert.Equal(t, "Riverside Sports Club", response.Programs[0].OrganizationName)
}

func TestCatalogHandler_GetProgramHandler(t *testing.T) {
	t.Run("invalid id", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/programs/not-a-uuid", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid program id")
	})

	t.Run("not found", func(t *testing.T) {
		router, mockUseCase := setupTestRouter(t)

		programID := uuid.Must(uuid.NewV7())
		mockUseCase.On("GetProgram", mock.Anything, programID).Return(nil, domain.ErrProgramNotFound)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/programs/"+programID.String(), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCatalogHandler_ListProgramSessionsHandler(t *testing.T) {
	router, mockUseCase := setupTestRouter(t)

	programID := uuid.Must(uuid.NewV7())
	sessions := []*domain.Session{
		{
			ID:        uuid.Must(uuid.NewV7()),
			ProgramID: programID,
			StartAt:   time.Now().Add(24 * time.Hour),
			EndAt:     time.Now().Add(26 * time.Hour),
			Capacity:  20,
			Location:  "Court A",
			Taken:     7,
			Available: 13,
		},
	}
	mockUseCase.On("ListProgramSessions", mock.Anything, programID).Return(sessions, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/programs/"+programID.String()+"/sessions", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.SessionListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Sessions, 1)
	assert.Equal(t, 13, response.Sessions[0].Available)
}

func TestCatalogHandler_GetAvailabilityHandler(t *testing.T) {
	router, mockUseCase := setupTestRouter(t)

	sessionID := uuid.Must(uuid.NewV7())
	availability := &domain.Availability{SessionID: sessionID, Capacity: 10, Taken: 4, Available: 6}
	mockUseCase.On("GetSessionAvailability", mock.Anything, sessionID).Return(availability, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+sessionID.String()+"/availability", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.AvailabilityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, sessionID, response.SessionID)
	assert.Equal(t, 6, response.Available)
}
