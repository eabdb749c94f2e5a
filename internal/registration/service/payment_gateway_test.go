package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockGateway_Charge(t *testing.T) {
	gateway := NewMockGateway()
	paymentID := uuid.Must(uuid.NewV7())

	result, err := gateway.Charge(context.Background(), paymentID, decimal.NewFromInt(50))

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Reference, "mock-"+paymentID.String()+"-"))
}
