package usecase

import (
	"context"
	"log/slog"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	"github.com/allisson/playbook/internal/webhook/domain"

	appValidation "github.com/allisson/playbook/internal/validation"
)

// CreateEndpointInput contains the input data for registering a webhook endpoint
type CreateEndpointInput struct {
	Name             string
	URL              string
	Secret           string
	SubscribedEvents []string
}

// EndpointManager defines the interface for endpoint management operations
type EndpointManager interface {
	CreateEndpoint(ctx context.Context, input CreateEndpointInput) (*domain.Endpoint, error)
	ListEndpoints(ctx context.Context) ([]*domain.Endpoint, error)
}

// EndpointUseCase handles webhook endpoint management
type EndpointUseCase struct {
	endpointRepo EndpointRepository
	logger       *slog.Logger
}

// NewEndpointUseCase creates a new EndpointUseCase
func NewEndpointUseCase(endpointRepo EndpointRepository, logger *slog.Logger) EndpointManager {
	return &EndpointUseCase{
		endpointRepo: endpointRepo,
		logger:       logger,
	}
}

// validateCreateEndpointInput validates the endpoint input using jellydator/validation
func (uc *EndpointUseCase) validateCreateEndpointInput(input CreateEndpointInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
		validation.Field(&input.URL,
			validation.Required.Error("url is required"),
			appValidation.HTTPURL,
		),
		validation.Field(&input.Secret,
			validation.Required.Error("secret is required"),
			validation.Length(16, 255).Error("secret must be between 16 and 255 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// CreateEndpoint registers an active webhook endpoint. An empty subscription
// list subscribes it to every event type.
func (uc *EndpointUseCase) CreateEndpoint(
	ctx context.Context,
	input CreateEndpointInput,
) (*domain.Endpoint, error) {
	if err := uc.validateCreateEndpointInput(input); err != nil {
		return nil, err
	}

	endpoint := &domain.Endpoint{
		ID:               uuid.Must(uuid.NewV7()),
		Name:             input.Name,
		URL:              input.URL,
		Secret:           input.Secret,
		SubscribedEvents: input.SubscribedEvents,
		IsActive:         true,
	}

	if err := uc.endpointRepo.Create(ctx, endpoint); err != nil {
		return nil, err
	}

	uc.logger.Info("webhook endpoint created",
		slog.String("endpoint_id", endpoint.ID.String()),
		slog.String("name", endpoint.Name),
		slog.String("url", endpoint.URL),
	)

	return endpoint, nil
}

// ListEndpoints returns every active endpoint.
func (uc *EndpointUseCase) ListEndpoints(ctx context.Context) ([]*domain.Endpoint, error) {
	return uc.endpointRepo.ListActive(ctx)
}
