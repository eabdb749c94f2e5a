package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/playbook/internal/registration/domain"
	"github.com/allisson/playbook/internal/registration/http/dto"
	"github.com/allisson/playbook/internal/registration/usecase"
)

// MockRegistrationUseCase is a mock implementation of usecase.UseCase
type MockRegistrationUseCase struct {
	mock.Mock
}

func (m *MockRegistrationUseCase) Admit(
	ctx context.Context,
	input usecase.AdmitInput,
) (*domain.Registration, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Registration), args.Error(1)
}

func (m *MockRegistrationUseCase) GetRegistration(
	ctx context.Context,
	id uuid.UUID,
) (*usecase.RegistrationDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.RegistrationDetail), args.Error(1)
}

func (m *MockRegistrationUseCase) Cancel(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Registration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Registration), args.Error(1)
}

func (m *MockRegistrationUseCase) Pay(
	ctx context.Context,
	id uuid.UUID,
	input usecase.PayInput,
) (*domain.Payment, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func setupTestRouter(t *testing.T) (*gin.Engine, *MockRegistrationUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := new(MockRegistrationUseCase)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewRegistrationHandler(mockUseCase, logger)

	router := gin.New()
	router.POST("/v1/registrations", handler.CreateHandler)
	router.GET("/v1/registrations/:id", handler.GetHandler)
	router.POST("/v1/registrations/:id/cancel", handler.CancelHandler)
	router.POST("/v1/registrations/:id/payments", handler.PayHandler)

	return router, mockUseCase
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestRegistrationHandler_CreateHandler(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		router, mockUseCase := setupTestRouter(t)

		sessionID := uuid.Must(uuid.NewV7())
		registration := &domain.Registration{
			ID:        uuid.Must(uuid.NewV7()),
			SessionID: sessionID,
			FullName:  "Ada Lovelace",
			Email:     "ada@example.com",
			Status:    domain.RegistrationStatusPending,
		}
		mockUseCase.On("Admit", mock.Anything, usecase.AdmitInput{
			SessionID: sessionID,
			FullName:  "Ada Lovelace",
			Email:     "ada@example.com",
		}).Return(registration, nil)

		w := postJSON(t, router, "/v1/registrations", dto.CreateRegistrationRequest{
			SessionID: sessionID.String(),
			FullName:  "Ada Lovelace",
			Email:     "ada@example.com",
		})

		assert.Equal(t, http.StatusCreated, w.Code)

		var response dto.RegistrationResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, registration.ID, response.ID)
		assert.Equal(t, "PENDING", response.Status)
	})

	t.Run("admission rule refusal maps to 400", func(t *testing.T) {
		router, mockUseCase := setupTestRouter(t)

		sessionID := uuid.Must(uuid.NewV7())
		mockUseCase.On("Admit", mock.Anything, mock.Anything).Return(nil, domain.ErrSessionFull)

		w := postJSON(t, router, "/v1/registrations", dto.CreateRegistrationRequest{
			SessionID: sessionID.String(),
			FullName:  "Ada Lovelace",
			Email:     "ada@example.com",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "session is full")
	})

	t.Run("bad session id", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		w := postJSON(t, router, "/v1/registrations", dto.CreateRegistrationRequest{
			SessionID: "not-a-uuid",
			FullName:  "Ada Lovelace",
			Email:     "ada@example.com",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid session id")
	})
}

func TestRegistrationHandler_GetHandler(t *testing.T) {
	router, mockUseCase := setupTestRouter(t)

	registration := &domain.Registration{
		ID:     uuid.Must(uuid.NewV7()),
		Status: domain.RegistrationStatusConfirmed,
	}
	detail := &usecase.RegistrationDetail{
		Registration: registration,
		Payments: []*domain.Payment{
			{ID: uuid.Must(uuid.NewV7()), RegistrationID: registration.ID,
				Status: domain.PaymentStatusPaid, Reference: "mock-ref-1"},
		},
	}
	mockUseCase.On("GetRegistration", mock.Anything, registration.ID).Return(detail, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/registrations/"+registration.ID.String(), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.RegistrationDetailResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "CONFIRMED", response.Status)
	require.Len(t, response.Payments, 1)
	assert.Equal(t, "mock-ref-1", response.Payments[0].Reference)
}

func TestRegistrationHandler_CancelHandler(t *testing.T) {
	t.Run("cancelled", func(t *testing.T) {
		router, mockUseCase := setupTestRouter(t)

		registration := &domain.Registration{
			ID:     uuid.Must(uuid.NewV7()),
			Status: domain.RegistrationStatusCancelled,
		}
		mockUseCase.On("Cancel", mock.Anything, registration.ID).Return(registration, nil)

		w := postJSON(t, router, "/v1/registrations/"+registration.ID.String()+"/cancel", nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not found maps to 404", func(t *testing.T) {
		router, mockUseCase := setupTestRouter(t)

		id := uuid.Must(uuid.NewV7())
		mockUseCase.On("Cancel", mock.Anything, id).Return(nil, domain.ErrRegistrationNotFound)

		w := postJSON(t, router, "/v1/registrations/"+id.String()+"/cancel", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRegistrationHandler_PayHandler(t *testing.T) {
	t.Run("settled", func(t *testing.T) {
		router, mockUseCase := setupTestRouter(t)

		id := uuid.Must(uuid.NewV7())
		payment := &domain.Payment{
			ID:             uuid.Must(uuid.NewV7()),
			RegistrationID: id,
			Status:         domain.PaymentStatusPaid,
			Provider:       "mock",
			Reference:      "mock-ref-1",
		}
		mockUseCase.On("Pay", mock.Anything, id, mock.Anything).Return(payment, nil)

		w := postJSON(t, router, "/v1/registrations/"+id.String()+"/payments",
			dto.CreatePaymentRequest{Amount: "50.00"})

		assert.Equal(t, http.StatusCreated, w.Code)

		var response dto.PaymentResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "PAID", response.Status)
	})

	t.Run("invalid amount", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		id := uuid.Must(uuid.NewV7())
		w := postJSON(t, router, "/v1/registrations/"+id.String()+"/payments",
			dto.CreatePaymentRequest{Amount: "fifty"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid amount")
	})

	t.Run("not found", func(t *testing.T) {
		router, mockUseCase := setupTestRouter(t)

		id := uuid.Must(uuid.NewV7())
		mockUseCase.On("Pay", mock.Anything, id, mock.Anything).
			Return(nil, domain.ErrRegistrationNotFound)

		w := postJSON(t, router, "/v1/registrations/"+id.String()+"/payments",
			dto.CreatePaymentRequest{Amount: "50.00"})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
