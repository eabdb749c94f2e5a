package usecase

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/playbook/internal/webhook/domain"
)

// MockTxManager is a mock implementation of database.TxManager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Get(0) != nil {
		return args.Error(0)
	}
	// Execute the function to test the logic inside
	return fn(ctx)
}

// MockEndpointRepository is a mock implementation of EndpointRepository
type MockEndpointRepository struct {
	mock.Mock
}

func (m *MockEndpointRepository) Create(ctx context.Context, endpoint *domain.Endpoint) error {
	args := m.Called(ctx, endpoint)
	return args.Error(0)
}

func (m *MockEndpointRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Endpoint, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Endpoint), args.Error(1)
}

func (m *MockEndpointRepository) ListActive(ctx context.Context) ([]*domain.Endpoint, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Endpoint), args.Error(1)
}

// MockOutboxEventRepository is a mock implementation of OutboxEventRepository
type MockOutboxEventRepository struct {
	mock.Mock
}

func (m *MockOutboxEventRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockOutboxEventRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.OutboxEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OutboxEvent), args.Error(1)
}

func (m *MockOutboxEventRepository) ClaimDue(
	ctx context.Context,
	limit int,
	owner uuid.UUID,
	leaseUntil time.Time,
) ([]*domain.OutboxEvent, error) {
	args := m.Called(ctx, limit, owner, leaseUntil)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OutboxEvent), args.Error(1)
}

func (m *MockOutboxEventRepository) Update(ctx context.Context, event *domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockOutboxEventRepository) CountDeliveredBefore(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOutboxEventRepository) DeleteDeliveredBefore(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisherUseCase_Publish(t *testing.T) {
	t.Run("fans out to subscribed endpoints only", func(t *testing.T) {
		txManager := new(MockTxManager)
		endpointRepo := new(MockEndpointRepository)
		outboxRepo := new(MockOutboxEventRepository)

		endpoints := []*domain.Endpoint{
			{ID: uuid.Must(uuid.NewV7()), Name: "all-events", IsActive: true},
			{ID: uuid.Must(uuid.NewV7()), Name: "payments-only", IsActive: true,
				SubscribedEvents: []string{"payment.paid"}},
		}

		txManager.On("WithTx", mock.Anything, mock.Anything).Return(nil)
		endpointRepo.On("ListActive", mock.Anything).Return(endpoints, nil)

		var created []*domain.OutboxEvent
		outboxRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.OutboxEvent")).
			Run(func(args mock.Arguments) {
				created = append(created, args.Get(1).(*domain.OutboxEvent))
			}).Return(nil)

		publisher := NewPublisherUseCase(txManager, endpointRepo, outboxRepo, discardLogger())
		count, err := publisher.Publish(context.Background(), "registration.created",
			map[string]any{"registration_id": "r1"})

		require.NoError(t, err)
		assert.Equal(t, 1, count)
		require.Len(t, created, 1)
		assert.Equal(t, endpoints[0].ID, created[0].EndpointID)
		assert.Equal(t, domain.OutboxEventStatusPending, created[0].Status)

		var envelope Envelope
		require.NoError(t, json.Unmarshal(created[0].Payload, &envelope))
		assert.Equal(t, "registration.created", envelope.Type)
		assert.False(t, envelope.CreatedAt.IsZero())
	})

	t.Run("no matching endpoint skips the transaction", func(t *testing.T) {
		txManager := new(MockTxManager)
		endpointRepo := new(MockEndpointRepository)
		outboxRepo := new(MockOutboxEventRepository)

		endpointRepo.On("ListActive", mock.Anything).Return([]*domain.Endpoint{}, nil)

		publisher := NewPublisherUseCase(txManager, endpointRepo, outboxRepo, discardLogger())
		count, err := publisher.Publish(context.Background(), "registration.created", nil)

		require.NoError(t, err)
		assert.Equal(t, 0, count)
		txManager.AssertNotCalled(t, "WithTx", mock.Anything, mock.Anything)
	})

	t.Run("same payload bytes for every endpoint", func(t *testing.T) {
		txManager := new(MockTxManager)
		endpointRepo := new(MockEndpointRepository)
		outboxRepo := new(MockOutboxEventRepository)

		endpoints := []*domain.Endpoint{
			{ID: uuid.Must(uuid.NewV7()), IsActive: true},
			{ID: uuid.Must(uuid.NewV7()), IsActive: true},
		}

		txManager.On("WithTx", mock.Anything, mock.Anything).Return(nil)
		endpointRepo.On("ListActive", mock.Anything).Return(endpoints, nil)

		var payloads [][]byte
		outboxRepo.On("Create", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				payloads = append(payloads, args.Get(1).(*domain.OutboxEvent).Payload)
			}).Return(nil)

		publisher := NewPublisherUseCase(txManager, endpointRepo, outboxRepo, discardLogger())
		count, err := publisher.Publish(context.Background(), "payment.paid", map[string]any{"x": 1})

		require.NoError(t, err)
		assert.Equal(t, 2, count)
		require.Len(t, payloads, 2)
		assert.Equal(t, payloads[0], payloads[1])
	})
}
