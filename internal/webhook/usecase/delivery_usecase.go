package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/playbook/internal/database"
	"github.com/allisson/playbook/internal/metrics"
	"github.com/allisson/playbook/internal/webhook/domain"
	"github.com/allisson/playbook/internal/webhook/service"
)

// maxConcurrentDeliveries bounds in-flight HTTP deliveries per batch.
const maxConcurrentDeliveries = 8

// Config holds delivery use case configuration
type Config struct {
	PollInterval  time.Duration
	BatchSize     int
	MaxAttempts   int
	LeaseDuration time.Duration
}

// Delivery defines the interface for dispatching outbox events
type Delivery interface {
	Start(ctx context.Context) error
	ProcessBatch(ctx context.Context, limit int) (int, error)
	PruneDelivered(ctx context.Context, olderThan time.Duration, dryRun bool) (int64, error)
}

// DeliveryUseCase claims due outbox events and delivers them. Claiming runs
// inside a transaction under a row lock; the HTTP delivery itself runs
// outside it, so a slow receiver never holds database locks.
type DeliveryUseCase struct {
	config     Config
	txManager  database.TxManager
	endpoints  EndpointRepository
	outboxRepo OutboxEventRepository
	deliverer  service.Deliverer
	metrics    metrics.BusinessMetrics
	logger     *slog.Logger
	owner      uuid.UUID
	now        func() time.Time
}

// NewDeliveryUseCase creates a new DeliveryUseCase. Each instance gets its
// own lease owner identity.
func NewDeliveryUseCase(
	config Config,
	txManager database.TxManager,
	endpoints EndpointRepository,
	outboxRepo OutboxEventRepository,
	deliverer service.Deliverer,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) *DeliveryUseCase {
	return &DeliveryUseCase{
		config:     config,
		txManager:  txManager,
		endpoints:  endpoints,
		outboxRepo: outboxRepo,
		deliverer:  deliverer,
		metrics:    businessMetrics,
		logger:     logger,
		owner:      uuid.Must(uuid.NewV7()),
		now:        time.Now,
	}
}

// Start runs the dispatch loop until the context is cancelled.
func (uc *DeliveryUseCase) Start(ctx context.Context) error {
	uc.logger.Info("starting webhook dispatcher",
		slog.Duration("poll_interval", uc.config.PollInterval),
		slog.Int("batch_size", uc.config.BatchSize),
		slog.String("owner", uc.owner.String()),
	)

	ticker := time.NewTicker(uc.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info("stopping webhook dispatcher")
			return ctx.Err()
		case <-ticker.C:
			if _, err := uc.ProcessBatch(ctx, uc.config.BatchSize); err != nil {
				uc.logger.Error("failed to process due events", slog.Any("error", err))
			}
		}
	}
}

// ProcessBatch claims up to limit due events and attempts each one. The
// returned count is how many events were claimed, whatever their outcome.
func (uc *DeliveryUseCase) ProcessBatch(ctx context.Context, limit int) (int, error) {
	var claimed []*domain.OutboxEvent

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		claimed, err = uc.outboxRepo.ClaimDue(ctx, limit, uc.owner, uc.now().Add(uc.config.LeaseDuration))
		return err
	})
	if err != nil {
		return 0, err
	}

	if len(claimed) == 0 {
		return 0, nil
	}

	uc.logger.Info("processing due events", slog.Int("count", len(claimed)))

	// Claimed events belong to this owner until the lease expires, so they
	// can be attempted concurrently. Each dispatch updates only its own row.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDeliveries)
	for _, event := range claimed {
		g.Go(func() error {
			if err := uc.dispatch(gctx, event); err != nil {
				uc.logger.Error("failed to record delivery outcome",
					slog.String("event_id", event.ID.String()),
					slog.Any("error", err),
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	return len(claimed), nil
}

// dispatch attempts one claimed event and records the outcome. The lease is
// released whichever way the attempt goes.
func (uc *DeliveryUseCase) dispatch(ctx context.Context, event *domain.OutboxEvent) error {
	endpoint, err := uc.endpoints.GetByID(ctx, event.EndpointID)
	if err != nil {
		// The endpoint is gone; retrying cannot succeed.
		return uc.deadLetter(ctx, event, "endpoint no longer exists")
	}

	started := uc.now()
	result, err := uc.deliverer.Deliver(ctx, endpoint, event)
	uc.metrics.RecordDuration(ctx, "webhook", "deliver", uc.now().Sub(started), deliveryStatus(result, err))

	if err != nil {
		return uc.recordFailure(ctx, event, err.Error(), nil)
	}
	if !result.Success() {
		message := fmt.Sprintf("endpoint answered %d: %s", result.StatusCode, result.BodyExcerpt)
		return uc.recordFailure(ctx, event, message, &result.StatusCode)
	}

	// Attempts counts failures only, so a first-try success keeps it at zero.
	now := uc.now()
	event.Status = domain.OutboxEventStatusDelivered
	event.DeliveredAt = &now
	event.LastError = nil
	event.LastStatusCode = &result.StatusCode
	event.ClaimedBy = nil
	event.ClaimedUntil = nil

	uc.metrics.RecordOperation(ctx, "webhook", "deliver", "success")
	uc.logger.Info("event delivered",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.EventType),
		slog.String("endpoint", endpoint.Name),
		slog.Int("failed_attempts", event.Attempts),
	)

	return uc.outboxRepo.Update(ctx, event)
}

// recordFailure bumps the attempt counter and either schedules a retry with
// exponential backoff or dead-letters the event at the attempt ceiling.
func (uc *DeliveryUseCase) recordFailure(
	ctx context.Context,
	event *domain.OutboxEvent,
	message string,
	statusCode *int,
) error {
	event.Attempts++
	truncated := domain.TruncateError(message)
	event.LastError = &truncated
	event.LastStatusCode = statusCode
	event.ClaimedBy = nil
	event.ClaimedUntil = nil

	if event.Attempts >= uc.config.MaxAttempts {
		event.Status = domain.OutboxEventStatusFailed
		uc.metrics.RecordOperation(ctx, "webhook", "deliver", "dead_letter")
		uc.logger.Error("event dead-lettered",
			slog.String("event_id", event.ID.String()),
			slog.String("event_type", event.EventType),
			slog.Int("attempts", event.Attempts),
			slog.String("last_error", truncated),
		)
	} else {
		event.Status = domain.OutboxEventStatusRetry
		event.NextAttemptAt = uc.now().Add(domain.NextBackoff(event.Attempts))
		uc.metrics.RecordOperation(ctx, "webhook", "deliver", "retry")
		uc.logger.Warn("event delivery failed, retry scheduled",
			slog.String("event_id", event.ID.String()),
			slog.String("event_type", event.EventType),
			slog.Int("attempts", event.Attempts),
			slog.Time("next_attempt_at", event.NextAttemptAt),
		)
	}

	return uc.outboxRepo.Update(ctx, event)
}

// deadLetter marks an event as permanently undeliverable.
func (uc *DeliveryUseCase) deadLetter(ctx context.Context, event *domain.OutboxEvent, reason string) error {
	truncated := domain.TruncateError(reason)
	event.Status = domain.OutboxEventStatusFailed
	event.LastError = &truncated
	event.ClaimedBy = nil
	event.ClaimedUntil = nil

	uc.metrics.RecordOperation(ctx, "webhook", "deliver", "dead_letter")
	return uc.outboxRepo.Update(ctx, event)
}

// PruneDelivered removes delivered events older than the retention window.
// With dryRun set it only reports how many rows would go.
func (uc *DeliveryUseCase) PruneDelivered(ctx context.Context, olderThan time.Duration, dryRun bool) (int64, error) {
	cutoff := uc.now().Add(-olderThan)

	if dryRun {
		count, err := uc.outboxRepo.CountDeliveredBefore(ctx, cutoff)
		if err != nil {
			return 0, fmt.Errorf("failed to count delivered events: %w", err)
		}
		uc.logger.Info("prune dry run",
			slog.Time("cutoff", cutoff),
			slog.Int64("would_delete", count),
		)
		return count, nil
	}

	deleted, err := uc.outboxRepo.DeleteDeliveredBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete delivered events: %w", err)
	}
	uc.logger.Info("pruned delivered events",
		slog.Time("cutoff", cutoff),
		slog.Int64("deleted", deleted),
	)
	return deleted, nil
}

func deliveryStatus(result *service.DeliveryResult, err error) string {
	if err != nil {
		return "error"
	}
	if !result.Success() {
		return "refused"
	}
	return "success"
}
