package commands

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	webhookDomain "github.com/allisson/playbook/internal/webhook/domain"
	webhookUsecase "github.com/allisson/playbook/internal/webhook/usecase"
)

// MockEndpointManager is a mock implementation of webhookUsecase.EndpointManager
type MockEndpointManager struct {
	mock.Mock
}

func (m *MockEndpointManager) CreateEndpoint(
	ctx context.Context,
	input webhookUsecase.CreateEndpointInput,
) (*webhookDomain.Endpoint, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*webhookDomain.Endpoint), args.Error(1)
}

func (m *MockEndpointManager) ListEndpoints(ctx context.Context) ([]*webhookDomain.Endpoint, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*webhookDomain.Endpoint), args.Error(1)
}

func TestRunCreateEndpoint(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	endpointID := uuid.Must(uuid.NewV7())

	t.Run("text-output-all-events", func(t *testing.T) {
		mockUseCase := &MockEndpointManager{}
		input := webhookUsecase.CreateEndpointInput{
			Name:   "billing-hooks",
			URL:    "https://receiver.example.com/hooks",
			Secret: "super-secret-value-16",
		}
		endpoint := &webhookDomain.Endpoint{
			ID:       endpointID,
			Name:     input.Name,
			URL:      input.URL,
			Secret:   input.Secret,
			IsActive: true,
		}

		mockUseCase.On("CreateEndpoint", ctx, input).Return(endpoint, nil)

		var out bytes.Buffer
		err := RunCreateEndpoint(
			ctx,
			mockUseCase,
			logger,
			&out,
			"billing-hooks",
			"https://receiver.example.com/hooks",
			"super-secret-value-16",
			"",
			"text",
		)

		require.NoError(t, err)
		require.Contains(t, out.String(), endpointID.String())
		require.Contains(t, out.String(), "Subscribed events: all")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("json-output-with-events", func(t *testing.T) {
		mockUseCase := &MockEndpointManager{}
		input := webhookUsecase.CreateEndpointInput{
			Name:             "billing-hooks",
			URL:              "https://receiver.example.com/hooks",
			Secret:           "super-secret-value-16",
			SubscribedEvents: []string{"registration.created", "payment.succeeded"},
		}
		endpoint := &webhookDomain.Endpoint{
			ID:               endpointID,
			Name:             input.Name,
			URL:              input.URL,
			Secret:           input.Secret,
			SubscribedEvents: input.SubscribedEvents,
			IsActive:         true,
		}

		mockUseCase.On("CreateEndpoint", ctx, input).Return(endpoint, nil)

		var out bytes.Buffer
		err := RunCreateEndpoint(
			ctx,
			mockUseCase,
			logger,
			&out,
			"billing-hooks",
			"https://receiver.example.com/hooks",
			"super-secret-value-16",
			"registration.created, payment.succeeded",
			"json",
		)

		require.NoError(t, err)
		require.Contains(t, out.String(), endpointID.String())
		require.Contains(t, out.String(), `"registration.created"`)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("use-case-error", func(t *testing.T) {
		mockUseCase := &MockEndpointManager{}
		mockUseCase.On("CreateEndpoint", ctx, mock.Anything).
			Return(nil, webhookDomain.ErrEndpointExists)

		err := RunCreateEndpoint(
			ctx,
			mockUseCase,
			logger,
			&bytes.Buffer{},
			"billing-hooks",
			"https://receiver.example.com/hooks",
			"super-secret-value-16",
			"",
			"text",
		)

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to create endpoint")
	})
}
