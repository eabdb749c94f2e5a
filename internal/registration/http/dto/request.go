// Package dto provides data transfer objects for the enrollment HTTP layer.
package dto

// CreateRegistrationRequest represents the API request for admission into a session
type CreateRegistrationRequest struct {
	SessionID string `json:"session_id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
}

// CreatePaymentRequest represents the API request for paying a registration
type CreatePaymentRequest struct {
	Amount string `json:"amount"`
}
