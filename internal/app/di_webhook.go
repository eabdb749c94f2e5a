package app

import (
	"fmt"

	webhookRepository "github.com/allisson/playbook/internal/webhook/repository"
	webhookService "github.com/allisson/playbook/internal/webhook/service"
	webhookUsecase "github.com/allisson/playbook/internal/webhook/usecase"
)

// EndpointRepository returns the webhook endpoint repository based on database driver.
func (c *Container) EndpointRepository() (webhookUsecase.EndpointRepository, error) {
	var err error
	c.endpointRepoInit.Do(func() {
		c.endpointRepo, err = c.initEndpointRepository()
		if err != nil {
			c.initErrors["endpointRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["endpointRepo"]; exists {
		return nil, storedErr
	}
	return c.endpointRepo, nil
}

// OutboxRepository returns the outbox event repository based on database driver.
func (c *Container) OutboxRepository() (webhookUsecase.OutboxEventRepository, error) {
	var err error
	c.outboxRepoInit.Do(func() {
		c.outboxRepo, err = c.initOutboxRepository()
		if err != nil {
			c.initErrors["outboxRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxRepo"]; exists {
		return nil, storedErr
	}
	return c.outboxRepo, nil
}

// Publisher returns the outbox publisher that fans events out to endpoints.
func (c *Container) Publisher() (webhookUsecase.Publisher, error) {
	var err error
	c.publisherInit.Do(func() {
		c.publisher, err = c.initPublisher()
		if err != nil {
			c.initErrors["publisher"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["publisher"]; exists {
		return nil, storedErr
	}
	return c.publisher, nil
}

// DeliveryUseCase returns the webhook delivery dispatcher.
func (c *Container) DeliveryUseCase() (webhookUsecase.Delivery, error) {
	var err error
	c.deliveryUseCaseInit.Do(func() {
		c.deliveryUseCase, err = c.initDeliveryUseCase()
		if err != nil {
			c.initErrors["deliveryUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["deliveryUseCase"]; exists {
		return nil, storedErr
	}
	return c.deliveryUseCase, nil
}

// EndpointUseCase returns the endpoint management use case.
func (c *Container) EndpointUseCase() (webhookUsecase.EndpointManager, error) {
	var err error
	c.endpointUseCaseInit.Do(func() {
		c.endpointUseCase, err = c.initEndpointUseCase()
		if err != nil {
			c.initErrors["endpointUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["endpointUseCase"]; exists {
		return nil, storedErr
	}
	return c.endpointUseCase, nil
}

// initEndpointRepository creates the webhook endpoint repository instance.
func (c *Container) initEndpointRepository() (webhookUsecase.EndpointRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for endpoint repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return webhookRepository.NewMySQLEndpointRepository(db), nil
	case "postgres":
		return webhookRepository.NewPostgreSQLEndpointRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initOutboxRepository creates the outbox event repository instance.
func (c *Container) initOutboxRepository() (webhookUsecase.OutboxEventRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for outbox repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return webhookRepository.NewMySQLOutboxRepository(db), nil
	case "postgres":
		return webhookRepository.NewPostgreSQLOutboxRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initPublisher creates the outbox publisher with all its dependencies.
func (c *Container) initPublisher() (webhookUsecase.Publisher, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for publisher: %w", err)
	}

	endpointRepo, err := c.EndpointRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get endpoint repository for publisher: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for publisher: %w", err)
	}

	return webhookUsecase.NewPublisherUseCase(txManager, endpointRepo, outboxRepo, c.Logger()), nil
}

// initDeliveryUseCase creates the webhook delivery dispatcher with all its dependencies.
func (c *Container) initDeliveryUseCase() (webhookUsecase.Delivery, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for delivery use case: %w", err)
	}

	endpointRepo, err := c.EndpointRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get endpoint repository for delivery use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for delivery use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for delivery use case: %w", err)
	}

	deliveryConfig := webhookUsecase.Config{
		PollInterval:  c.config.WebhookPollInterval,
		BatchSize:     c.config.WebhookBatchSize,
		MaxAttempts:   c.config.WebhookMaxAttempts,
		LeaseDuration: c.config.WebhookLeaseDuration,
	}

	deliverer := webhookService.NewHTTPDeliverer(c.config.WebhookTimeout, c.config.WebhookSigningSecret)

	return webhookUsecase.NewDeliveryUseCase(
		deliveryConfig,
		txManager,
		endpointRepo,
		outboxRepo,
		deliverer,
		businessMetrics,
		c.Logger(),
	), nil
}

// initEndpointUseCase creates the endpoint management use case.
func (c *Container) initEndpointUseCase() (webhookUsecase.EndpointManager, error) {
	endpointRepo, err := c.EndpointRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get endpoint repository for endpoint use case: %w", err)
	}

	return webhookUsecase.NewEndpointUseCase(endpointRepo, c.Logger()), nil
}
