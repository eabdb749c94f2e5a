// Package dto provides data transfer objects for the enrollment HTTP layer.
package dto

import (
	"github.com/allisson/playbook/internal/registration/domain"
	"github.com/allisson/playbook/internal/registration/usecase"
)

// ToRegistrationResponse converts a domain Registration to a RegistrationResponse DTO
func ToRegistrationResponse(registration *domain.Registration) RegistrationResponse {
	return RegistrationResponse{
		ID:        registration.ID,
		SessionID: registration.SessionID,
		FullName:  registration.FullName,
		Email:     registration.Email,
		Status:    string(registration.Status),
		CreatedAt: registration.CreatedAt,
		UpdatedAt: registration.UpdatedAt,
	}
}

// ToPaymentResponse converts a domain Payment to a PaymentResponse DTO
func ToPaymentResponse(payment *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:             payment.ID,
		RegistrationID: payment.RegistrationID,
		Amount:         payment.Amount,
		Status:         string(payment.Status),
		Provider:       payment.Provider,
		Reference:      payment.Reference,
		CreatedAt:      payment.CreatedAt,
		UpdatedAt:      payment.UpdatedAt,
	}
}

// ToRegistrationDetailResponse converts a RegistrationDetail to its response DTO
func ToRegistrationDetailResponse(detail *usecase.RegistrationDetail) RegistrationDetailResponse {
	response := RegistrationDetailResponse{
		RegistrationResponse: ToRegistrationResponse(detail.Registration),
		Payments:             make([]PaymentResponse, 0, len(detail.Payments)),
	}
	for _, payment := range detail.Payments {
		response.Payments = append(response.Payments, ToPaymentResponse(payment))
	}
	return response
}
