package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/allisson/playbook/internal/app"
	"github.com/allisson/playbook/internal/config"
)

// RunWorker starts the webhook delivery worker with graceful shutdown support.
// The worker polls the outbox for due events and delivers them until receiving
// SIGINT/SIGTERM.
func RunWorker(ctx context.Context, version string) error {
	// Load configuration
	cfg := config.Load()

	// Create DI container
	container := app.NewContainer(cfg)

	// Get logger from container
	logger := container.Logger()
	logger.Info("starting worker", slog.String("version", version))

	// Ensure cleanup on exit
	defer closeContainer(container, logger)

	// Get delivery use case from container
	delivery, err := container.DeliveryUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize delivery use case: %w", err)
	}

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The dispatch loop blocks until the context is cancelled
	if err := delivery.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("worker error: %w", err)
	}

	logger.Info("worker stopped")
	return nil
}
