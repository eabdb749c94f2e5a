package app

import (
	"fmt"

	catalogRepository "github.com/allisson/playbook/internal/catalog/repository"
	registrationHTTP "github.com/allisson/playbook/internal/registration/http"
	registrationRepository "github.com/allisson/playbook/internal/registration/repository"
	"github.com/allisson/playbook/internal/registration/service"
	registrationUsecase "github.com/allisson/playbook/internal/registration/usecase"
)

// RegistrationRepository returns the registration repository based on database driver.
func (c *Container) RegistrationRepository() (registrationUsecase.RegistrationRepository, error) {
	var err error
	c.registrationRepoInit.Do(func() {
		c.registrationRepo, err = c.initRegistrationRepository()
		if err != nil {
			c.initErrors["registrationRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["registrationRepo"]; exists {
		return nil, storedErr
	}
	return c.registrationRepo, nil
}

// PaymentRepository returns the payment repository based on database driver.
func (c *Container) PaymentRepository() (registrationUsecase.PaymentRepository, error) {
	var err error
	c.paymentRepoInit.Do(func() {
		c.paymentRepo, err = c.initPaymentRepository()
		if err != nil {
			c.initErrors["paymentRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["paymentRepo"]; exists {
		return nil, storedErr
	}
	return c.paymentRepo, nil
}

// RegistrationUseCase returns the enrollment use case.
func (c *Container) RegistrationUseCase() (registrationUsecase.UseCase, error) {
	var err error
	c.registrationUseCaseInit.Do(func() {
		c.registrationUseCase, err = c.initRegistrationUseCase()
		if err != nil {
			c.initErrors["registrationUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["registrationUseCase"]; exists {
		return nil, storedErr
	}
	return c.registrationUseCase, nil
}

// RegistrationHandler returns the HTTP handler for enrollment operations.
func (c *Container) RegistrationHandler() (*registrationHTTP.RegistrationHandler, error) {
	var err error
	c.registrationHandlerInit.Do(func() {
		c.registrationHandler, err = c.initRegistrationHandler()
		if err != nil {
			c.initErrors["registrationHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["registrationHandler"]; exists {
		return nil, storedErr
	}
	return c.registrationHandler, nil
}

// initRegistrationRepository creates the registration repository instance.
func (c *Container) initRegistrationRepository() (registrationUsecase.RegistrationRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for registration repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return registrationRepository.NewMySQLRegistrationRepository(db), nil
	case "postgres":
		return registrationRepository.NewPostgreSQLRegistrationRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initPaymentRepository creates the payment repository instance.
func (c *Container) initPaymentRepository() (registrationUsecase.PaymentRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for payment repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return registrationRepository.NewMySQLPaymentRepository(db), nil
	case "postgres":
		return registrationRepository.NewPostgreSQLPaymentRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initSessionRepository creates the session lock repository for admission control.
func (c *Container) initSessionRepository() (registrationUsecase.SessionRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for session repository: %w", err)
	}

	// The catalog repository carries the row-locking session read; the
	// enrollment use case only sees the narrow SessionRepository interface.
	switch c.config.DBDriver {
	case "mysql":
		return catalogRepository.NewMySQLCatalogRepository(db), nil
	case "postgres":
		return catalogRepository.NewPostgreSQLCatalogRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initRegistrationUseCase creates the enrollment use case with all its dependencies.
func (c *Container) initRegistrationUseCase() (registrationUsecase.UseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for registration use case: %w", err)
	}

	sessionRepo, err := c.initSessionRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get session repository for registration use case: %w", err)
	}

	registrationRepo, err := c.RegistrationRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get registration repository for registration use case: %w", err)
	}

	paymentRepo, err := c.PaymentRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get payment repository for registration use case: %w", err)
	}

	publisher, err := c.Publisher()
	if err != nil {
		return nil, fmt.Errorf("failed to get event publisher for registration use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for registration use case: %w", err)
	}

	return registrationUsecase.NewRegistrationUseCase(
		txManager,
		sessionRepo,
		registrationRepo,
		paymentRepo,
		service.NewMockGateway(),
		publisher,
		businessMetrics,
		c.Logger(),
	), nil
}

// initRegistrationHandler creates the enrollment HTTP handler.
func (c *Container) initRegistrationHandler() (*registrationHTTP.RegistrationHandler, error) {
	registrationUseCase, err := c.RegistrationUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get registration use case for registration handler: %w", err)
	}

	return registrationHTTP.NewRegistrationHandler(registrationUseCase, c.Logger()), nil
}
