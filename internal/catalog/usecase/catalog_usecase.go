// Package usecase implements the catalog read-side business logic.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/playbook/internal/catalog/domain"
)

// UseCase defines the interface for catalog business logic operations
type UseCase interface {
	ListPrograms(ctx context.Context) ([]*domain.Program, error)
	GetProgram(ctx context.Context, id uuid.UUID) (*domain.Program, error)
	ListProgramSessions(ctx context.Context, programID uuid.UUID) ([]*domain.Session, error)
	GetSessionAvailability(ctx context.Context, sessionID uuid.UUID) (*domain.Availability, error)
}

// CatalogRepository interface defines catalog repository operations
type CatalogRepository interface {
	ListActivePrograms(ctx context.Context) ([]*domain.Program, error)
	GetProgram(ctx context.Context, id uuid.UUID) (*domain.Program, error)
	ListProgramSessions(ctx context.Context, programID uuid.UUID) ([]*domain.Session, error)
	GetAvailability(ctx context.Context, id uuid.UUID) (*domain.Availability, error)
}

// CatalogUseCase handles catalog-related business logic
type CatalogUseCase struct {
	catalogRepo CatalogRepository
}

// NewCatalogUseCase creates a new CatalogUseCase
func NewCatalogUseCase(catalogRepo CatalogRepository) UseCase {
	return &CatalogUseCase{
		catalogRepo: catalogRepo,
	}
}

// ListPrograms returns all active programs with their organization names.
func (uc *CatalogUseCase) ListPrograms(ctx context.Context) ([]*domain.Program, error) {
	return uc.catalogRepo.ListActivePrograms(ctx)
}

// GetProgram returns one active program by ID.
func (uc *CatalogUseCase) GetProgram(ctx context.Context, id uuid.UUID) (*domain.Program, error) {
	return uc.catalogRepo.GetProgram(ctx, id)
}

// ListProgramSessions returns the sessions of an active program, ordered by
// start time and annotated with seat counts. The program is resolved first so
// an unknown ID surfaces as not found instead of an empty list.
func (uc *CatalogUseCase) ListProgramSessions(
	ctx context.Context,
	programID uuid.UUID,
) ([]*domain.Session, error) {
	if _, err := uc.catalogRepo.GetProgram(ctx, programID); err != nil {
		return nil, err
	}
	return uc.catalogRepo.ListProgramSessions(ctx, programID)
}

// GetSessionAvailability returns the seat summary for one session.
func (uc *CatalogUseCase) GetSessionAvailability(
	ctx context.Context,
	sessionID uuid.UUID,
) (*domain.Availability, error) {
	return uc.catalogRepo.GetAvailability(ctx, sessionID)
}
