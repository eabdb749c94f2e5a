package app

import (
	"context"
	"fmt"

	catalogDomain "github.com/allisson/playbook/internal/catalog/domain"
	catalogHTTP "github.com/allisson/playbook/internal/catalog/http"
	catalogRepository "github.com/allisson/playbook/internal/catalog/repository"
	catalogUsecase "github.com/allisson/playbook/internal/catalog/usecase"
)

// CatalogSeeder covers the catalog write operations the seed command needs.
// Both concrete catalog repositories satisfy it.
type CatalogSeeder interface {
	CreateOrganization(ctx context.Context, org *catalogDomain.Organization) error
	GetOrganizationByName(ctx context.Context, name string) (*catalogDomain.Organization, error)
	CreateProgram(ctx context.Context, program *catalogDomain.Program) error
	CreateSession(ctx context.Context, session *catalogDomain.Session) error
}

// CatalogRepository returns the catalog repository based on database driver.
func (c *Container) CatalogRepository() (catalogUsecase.CatalogRepository, error) {
	var err error
	c.catalogRepoInit.Do(func() {
		c.catalogRepo, err = c.initCatalogRepository()
		if err != nil {
			c.initErrors["catalogRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["catalogRepo"]; exists {
		return nil, storedErr
	}
	return c.catalogRepo, nil
}

// CatalogUseCase returns the catalog use case.
func (c *Container) CatalogUseCase() (catalogUsecase.UseCase, error) {
	var err error
	c.catalogUseCaseInit.Do(func() {
		c.catalogUseCase, err = c.initCatalogUseCase()
		if err != nil {
			c.initErrors["catalogUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["catalogUseCase"]; exists {
		return nil, storedErr
	}
	return c.catalogUseCase, nil
}

// CatalogHandler returns the HTTP handler for catalog operations.
func (c *Container) CatalogHandler() (*catalogHTTP.CatalogHandler, error) {
	var err error
	c.catalogHandlerInit.Do(func() {
		c.catalogHandler, err = c.initCatalogHandler()
		if err != nil {
			c.initErrors["catalogHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["catalogHandler"]; exists {
		return nil, storedErr
	}
	return c.catalogHandler, nil
}

// CatalogSeeder returns a catalog repository widened to its write operations.
// Not cached: the seed command runs once per process.
func (c *Container) CatalogSeeder() (CatalogSeeder, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for catalog seeder: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return catalogRepository.NewMySQLCatalogRepository(db), nil
	case "postgres":
		return catalogRepository.NewPostgreSQLCatalogRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initCatalogRepository creates the catalog repository instance.
func (c *Container) initCatalogRepository() (catalogUsecase.CatalogRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for catalog repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return catalogRepository.NewMySQLCatalogRepository(db), nil
	case "postgres":
		return catalogRepository.NewPostgreSQLCatalogRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initCatalogUseCase creates the catalog use case with all its dependencies.
func (c *Container) initCatalogUseCase() (catalogUsecase.UseCase, error) {
	catalogRepo, err := c.CatalogRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog repository for catalog use case: %w", err)
	}

	return catalogUsecase.NewCatalogUseCase(catalogRepo), nil
}

// initCatalogHandler creates the catalog HTTP handler.
func (c *Container) initCatalogHandler() (*catalogHTTP.CatalogHandler, error) {
	catalogUseCase, err := c.CatalogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog use case for catalog handler: %w", err)
	}

	return catalogHTTP.NewCatalogHandler(catalogUseCase, c.Logger()), nil
}
