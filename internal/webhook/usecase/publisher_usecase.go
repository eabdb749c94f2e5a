// Package usecase implements the webhook business logic: fanning events out
// to subscribed endpoints and delivering them from the outbox.
package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/playbook/internal/database"
	"github.com/allisson/playbook/internal/webhook/domain"

	apperrors "github.com/allisson/playbook/internal/errors"
)

// Envelope is the wire format every webhook receiver sees.
type Envelope struct {
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Data      any       `json:"data"`
}

// EndpointRepository interface defines endpoint repository operations
type EndpointRepository interface {
	Create(ctx context.Context, endpoint *domain.Endpoint) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Endpoint, error)
	ListActive(ctx context.Context) ([]*domain.Endpoint, error)
}

// OutboxEventRepository interface defines outbox event repository operations
type OutboxEventRepository interface {
	Create(ctx context.Context, event *domain.OutboxEvent) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.OutboxEvent, error)
	ClaimDue(ctx context.Context, limit int, owner uuid.UUID, leaseUntil time.Time) ([]*domain.OutboxEvent, error)
	Update(ctx context.Context, event *domain.OutboxEvent) error
	CountDeliveredBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteDeliveredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Publisher defines the interface for fanning an event out to endpoints
type Publisher interface {
	Publish(ctx context.Context, eventType string, data any) (int, error)
}

// PublisherUseCase enqueues one outbox row per subscribed endpoint. The
// payload is marshalled once here; deliveries sign and send those stored
// bytes unchanged.
type PublisherUseCase struct {
	txManager    database.TxManager
	endpointRepo EndpointRepository
	outboxRepo   OutboxEventRepository
	logger       *slog.Logger
	now          func() time.Time
}

// NewPublisherUseCase creates a new PublisherUseCase
func NewPublisherUseCase(
	txManager database.TxManager,
	endpointRepo EndpointRepository,
	outboxRepo OutboxEventRepository,
	logger *slog.Logger,
) Publisher {
	return &PublisherUseCase{
		txManager:    txManager,
		endpointRepo: endpointRepo,
		outboxRepo:   outboxRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// Publish enqueues the event for every active endpoint subscribed to its
// type and returns how many were enqueued. All rows commit atomically; a
// partial fan-out never reaches the dispatcher.
func (uc *PublisherUseCase) Publish(ctx context.Context, eventType string, data any) (int, error) {
	now := uc.now()

	payload, err := json.Marshal(Envelope{
		Type:      eventType,
		CreatedAt: now.UTC(),
		Data:      data,
	})
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal event payload")
	}

	endpoints, err := uc.endpointRepo.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	var matched []*domain.Endpoint
	for _, endpoint := range endpoints {
		if endpoint.Matches(eventType) {
			matched = append(matched, endpoint)
		}
	}
	if len(matched) == 0 {
		return 0, nil
	}

	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		for _, endpoint := range matched {
			event := &domain.OutboxEvent{
				ID:            uuid.Must(uuid.NewV7()),
				EndpointID:    endpoint.ID,
				EventType:     eventType,
				Payload:       payload,
				Status:        domain.OutboxEventStatusPending,
				NextAttemptAt: now,
			}
			if err := uc.outboxRepo.Create(ctx, event); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	uc.logger.Info("event enqueued",
		slog.String("event_type", eventType),
		slog.Int("endpoints", len(matched)),
	)

	return len(matched), nil
}
