package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	webhookUsecase "github.com/allisson/playbook/internal/webhook/usecase"
)

// RunDispatch claims and delivers one batch of due webhook events, then exits.
// Useful for cron-style deployments and for draining the outbox manually. A
// limit of zero falls back to the configured batch size.
//
// Requirements: Database must be migrated and accessible.
func RunDispatch(
	ctx context.Context,
	delivery webhookUsecase.Delivery,
	logger *slog.Logger,
	writer io.Writer,
	limit int,
	defaultLimit int,
	format string,
) error {
	if limit < 0 {
		return fmt.Errorf("limit must be a positive number, got: %d", limit)
	}
	if limit == 0 {
		limit = defaultLimit
	}

	logger.Info("dispatching webhook events", slog.Int("limit", limit))

	processed, err := delivery.ProcessBatch(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to dispatch events: %w", err)
	}

	if format == "json" {
		writeJSON(writer, map[string]any{
			"processed": processed,
			"limit":     limit,
		})
	} else {
		_, _ = fmt.Fprintf(writer, "Processed %d webhook event(s)\n", processed)
	}

	logger.Info("dispatch completed", slog.Int("processed", processed))
	return nil
}
