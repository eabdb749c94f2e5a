// Package dto provides data transfer objects for the enrollment HTTP layer.
package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RegistrationResponse represents the API response for a registration
type RegistrationResponse struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PaymentResponse represents the API response for a payment
type PaymentResponse struct {
	ID             uuid.UUID       `json:"id"`
	RegistrationID uuid.UUID       `json:"registration_id"`
	Amount         decimal.Decimal `json:"amount"`
	Status         string          `json:"status"`
	Provider       string          `json:"provider"`
	Reference      string          `json:"reference"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// RegistrationDetailResponse bundles a registration with its payment history
type RegistrationDetailResponse struct {
	RegistrationResponse
	Payments []PaymentResponse `json:"payments"`
}
