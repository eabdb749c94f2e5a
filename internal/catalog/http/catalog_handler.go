// Package http provides HTTP handlers for catalog browsing operations.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/playbook/internal/catalog/http/dto"
	"github.com/allisson/playbook/internal/catalog/usecase"
	"github.com/allisson/playbook/internal/httputil"
)

// CatalogHandler handles catalog-related HTTP requests
type CatalogHandler struct {
	catalogUseCase usecase.UseCase
	logger         *slog.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogUseCase usecase.UseCase, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogUseCase: catalogUseCase,
		logger:         logger,
	}
}

// ListProgramsHandler lists active programs.
// GET /v1/programs
func (h *CatalogHandler) ListProgramsHandler(c *gin.Context) {
	programs, err := h.catalogUseCase.ListPrograms(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToProgramListResponse(programs))
}

// GetProgramHandler returns one active program.
// GET /v1/programs/:id
func (h *CatalogHandler) GetProgramHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid program id: %w", err), h.logger)
		return
	}

	program, err := h.catalogUseCase.GetProgram(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToProgramResponse(program))
}

// ListProgramSessionsHandler lists a program's sessions with seat counts.
// GET /v1/programs/:id/sessions
func (h *CatalogHandler) ListProgramSessionsHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid program id: %w", err), h.logger)
		return
	}

	sessions, err := h.catalogUseCase.ListProgramSessions(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToSessionListResponse(sessions))
}

// GetAvailabilityHandler returns the seat summary for a session.
// GET /v1/sessions/:id/availability
func (h *CatalogHandler) GetAvailabilityHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid session id: %w", err), h.logger)
		return
	}

	availability, err := h.catalogUseCase.GetSessionAvailability(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToAvailabilityResponse(availability))
}
