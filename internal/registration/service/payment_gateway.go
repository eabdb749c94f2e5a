// Package service provides the payment provider integration used to confirm
// registrations.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargeResult carries the provider's settlement details for a charge.
type ChargeResult struct {
	Reference string
}

// PaymentGateway abstracts the payment provider. Implementations must be
// safe for concurrent use.
type PaymentGateway interface {
	Charge(ctx context.Context, paymentID uuid.UUID, amount decimal.Decimal) (*ChargeResult, error)
}

// MockGateway is the development gateway: every charge settles immediately
// with an opaque reference. Swap for a real provider adapter in production.
type MockGateway struct{}

// NewMockGateway creates a new MockGateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// Charge settles the payment and returns a synthetic provider reference.
func (g *MockGateway) Charge(
	_ context.Context,
	paymentID uuid.UUID,
	_ decimal.Decimal,
) (*ChargeResult, error) {
	return &ChargeResult{
		Reference: fmt.Sprintf("mock-%s-%d", paymentID, time.Now().Unix()),
	}, nil
}
