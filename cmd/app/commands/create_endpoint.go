package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	webhookDomain "github.com/allisson/playbook/internal/webhook/domain"
	webhookUsecase "github.com/allisson/playbook/internal/webhook/usecase"
)

// RunCreateEndpoint registers a webhook endpoint that receives signed event
// deliveries. An empty events string subscribes the endpoint to every event
// type. Outputs the endpoint ID in either text or JSON format.
//
// Requirements: Database must be migrated and accessible.
func RunCreateEndpoint(
	ctx context.Context,
	endpointUseCase webhookUsecase.EndpointManager,
	logger *slog.Logger,
	writer io.Writer,
	name string,
	url string,
	secret string,
	events string,
	format string,
) error {
	logger.Info("creating webhook endpoint", slog.String("name", name))

	input := webhookUsecase.CreateEndpointInput{
		Name:             name,
		URL:              url,
		Secret:           secret,
		SubscribedEvents: parseEventTypes(events),
	}

	endpoint, err := endpointUseCase.CreateEndpoint(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create endpoint: %w", err)
	}

	if format == "json" {
		outputEndpointJSON(endpoint, writer)
	} else {
		outputEndpointText(endpoint, writer)
	}

	logger.Info("webhook endpoint created successfully",
		slog.String("endpoint_id", endpoint.ID.String()),
		slog.String("name", endpoint.Name),
		slog.String("url", endpoint.URL),
	)

	return nil
}

// outputEndpointText outputs the result in human-readable text format.
func outputEndpointText(endpoint *webhookDomain.Endpoint, writer io.Writer) {
	_, _ = fmt.Fprintln(writer, "\nWebhook endpoint created successfully!")
	_, _ = fmt.Fprintf(writer, "Endpoint ID: %s\n", endpoint.ID.String())
	_, _ = fmt.Fprintf(writer, "URL: %s\n", endpoint.URL)
	if len(endpoint.SubscribedEvents) == 0 {
		_, _ = fmt.Fprintln(writer, "Subscribed events: all")
	} else {
		_, _ = fmt.Fprintf(writer, "Subscribed events: %s\n", strings.Join(endpoint.SubscribedEvents, ", "))
	}
}

// outputEndpointJSON outputs the result in JSON format for machine consumption.
func outputEndpointJSON(endpoint *webhookDomain.Endpoint, writer io.Writer) {
	writeJSON(writer, map[string]any{
		"endpoint_id":       endpoint.ID.String(),
		"name":              endpoint.Name,
		"url":               endpoint.URL,
		"subscribed_events": endpoint.SubscribedEvents,
	})
}
