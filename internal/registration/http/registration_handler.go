// Package http provides HTTP handlers for enrollment operations.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/allisson/playbook/internal/httputil"
	"github.com/allisson/playbook/internal/registration/http/dto"
	"github.com/allisson/playbook/internal/registration/usecase"
)

// RegistrationHandler handles enrollment HTTP requests
type RegistrationHandler struct {
	registrationUseCase usecase.UseCase
	logger              *slog.Logger
}

// NewRegistrationHandler creates a new RegistrationHandler
func NewRegistrationHandler(registrationUseCase usecase.UseCase, logger *slog.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		registrationUseCase: registrationUseCase,
		logger:              logger,
	}
}

// CreateHandler admits a registrant into a session.
// POST /v1/registrations - 201 on success, 404 for unknown sessions, 400 when
// an admission rule refuses the request.
func (h *RegistrationHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid session id: %w", err), h.logger)
		return
	}

	registration, err := h.registrationUseCase.Admit(c.Request.Context(), usecase.AdmitInput{
		SessionID: sessionID,
		FullName:  req.FullName,
		Email:     req.Email,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.ToRegistrationResponse(registration))
}

// GetHandler returns a registration and its payment history.
// GET /v1/registrations/:id
func (h *RegistrationHandler) GetHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid registration id: %w", err), h.logger)
		return
	}

	detail, err := h.registrationUseCase.GetRegistration(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToRegistrationDetailResponse(detail))
}

// CancelHandler releases a registration's seat.
// POST /v1/registrations/:id/cancel
func (h *RegistrationHandler) CancelHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid registration id: %w", err), h.logger)
		return
	}

	registration, err := h.registrationUseCase.Cancel(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToRegistrationResponse(registration))
}

// PayHandler charges the registrant and confirms the seat. Replaying the
// request after a settled payment returns that payment unchanged.
// POST /v1/registrations/:id/payments
func (h *RegistrationHandler) PayHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid registration id: %w", err), h.logger)
		return
	}

	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid amount: %w", err), h.logger)
		return
	}

	payment, err := h.registrationUseCase.Pay(c.Request.Context(), id, usecase.PayInput{Amount: amount})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.ToPaymentResponse(payment))
}
