package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	webhookUsecase "github.com/allisson/playbook/internal/webhook/usecase"
)

// RunCleanOutboxEvents deletes delivered webhook events older than the
// specified number of days. Supports dry-run mode to preview the deletion
// count and both text/JSON output formats.
//
// Requirements: Database must be migrated and accessible.
func RunCleanOutboxEvents(
	ctx context.Context,
	delivery webhookUsecase.Delivery,
	logger *slog.Logger,
	writer io.Writer,
	days int,
	dryRun bool,
	format string,
) error {
	if days < 0 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}

	logger.Info("cleaning outbox events",
		slog.Int("days", days),
		slog.Bool("dry_run", dryRun),
	)

	count, err := delivery.PruneDelivered(ctx, time.Duration(days)*24*time.Hour, dryRun)
	if err != nil {
		return fmt.Errorf("failed to clean outbox events: %w", err)
	}

	if format == "json" {
		writeJSON(writer, map[string]any{
			"count":   count,
			"days":    days,
			"dry_run": dryRun,
		})
	} else if dryRun {
		_, _ = fmt.Fprintf(writer, "Dry-run mode: Would delete %d delivered event(s) older than %d day(s)\n", count, days)
	} else {
		_, _ = fmt.Fprintf(writer, "Successfully deleted %d delivered event(s) older than %d day(s)\n", count, days)
	}

	logger.Info("cleanup completed",
		slog.Int64("count", count),
		slog.Int("days", days),
		slog.Bool("dry_run", dryRun),
	)

	return nil
}
